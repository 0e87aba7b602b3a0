package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
)

// ErrAllMirrorsFailed signals that every sampled mirror lost its attempt.
// Callers treat it as "no data", never as a fatal error.
var ErrAllMirrorsFailed = errors.New("all sampled mirrors failed")

// errBadJSON marks a 200 response whose body did not parse; the attempt loses
// exactly like a transport failure would.
var errBadJSON = errors.New("mirror returned invalid JSON")

// Dispatch races one GET per sampled mirror for the given API path and
// returns the first 200 response with a valid JSON body, cancelling the
// remaining in-flight attempts. Any network error, timeout, non-200 status,
// or unparsable body silently forfeits that attempt. The caller's context
// cancels the whole race.
func (e *Engine) Dispatch(ctx context.Context, path string, to Timeout) (json.RawMessage, error) {
	endpoints := e.pool.Sample(e.cfg.MirrorFanOut)
	if len(endpoints) == 0 {
		return nil, ErrAllMirrorsFailed
	}
	IncrMirrorDispatch()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan json.RawMessage, len(endpoints))
	for _, base := range endpoints {
		go func(base string) {
			data, err := e.mirrorGet(raceCtx, base, path, to)
			if err != nil {
				IncrMirrorAttemptFailure()
				slog.Debug("mirror attempt lost",
					slog.String("instance", base),
					slog.String("path", path),
					slog.Any("error", err))
				results <- nil
				return
			}
			results <- data
		}(base)
	}

	for range endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data := <-results:
			if data != nil {
				return data, nil
			}
		}
	}
	IncrMirrorExhausted()
	return nil, ErrAllMirrorsFailed
}

func (e *Engine) mirrorGet(ctx context.Context, base, path string, to Timeout) (json.RawMessage, error) {
	url := strings.TrimSuffix(base, "/") + "/api/v1" + path
	body, err := e.client.Get(ctx, url, to, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errBadJSON
	}
	return json.RawMessage(body), nil
}
