package sources

import (
	"encoding/json"
	"testing"
)

func TestFlexInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{`12345`, 12345},
		{`"12345"`, 12345},
		{`"not a number"`, 0},
		{`""`, 0},
		{`null`, 0},
	}
	for _, c := range cases {
		var n flexInt
		if err := json.Unmarshal([]byte(c.in), &n); err != nil {
			t.Errorf("flexInt(%s): unexpected error %v", c.in, err)
			continue
		}
		if int64(n) != c.want {
			t.Errorf("flexInt(%s) = %d, want %d", c.in, n, c.want)
		}
	}
}

func TestFlexString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"5万"`, "5万"},
		{`777`, "777"},
		{`null`, ""},
		{`""`, ""},
	}
	for _, c := range cases {
		var s flexString
		if err := json.Unmarshal([]byte(c.in), &s); err != nil {
			t.Errorf("flexString(%s): unexpected error %v", c.in, err)
			continue
		}
		if string(s) != c.want {
			t.Errorf("flexString(%s) = %q, want %q", c.in, s, c.want)
		}
	}
}
