package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/socialconnect/pkg/errors"
)

// apiResult is the classified outcome of one backend request
type apiResult struct {
	data   map[string]any
	reason string
	err    error
}

// Result converts the internal outcome to the caller-facing Result
func (r apiResult) Result() Result {
	if r.err != nil {
		return Result{Reason: r.reason, Err: r.err}
	}
	return Result{OK: true, Data: r.data}
}

func failure(reason string, err error) apiResult {
	return apiResult{reason: reason, err: err}
}

// apiRequest posts form to endpoint and calls done exactly once with the
// classified outcome. It returns false without dispatching when another
// request is outstanding (done is not called) or when the request cannot be
// built (done receives a configuration error).
func (s *Service) apiRequest(endpoint string, form url.Values, done func(apiResult)) bool {
	form.Set("game", s.gameName)

	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		cancel()
		s.logger.Error("failed to build request", "endpoint", endpoint, "error", err)
		done(failure(ReasonInvalidParameters, errors.Wrap(err, errors.ErrCodeConfiguration, "invalid request").WithDetail("endpoint", endpoint)))
		return false
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		cancel()
		s.logger.Warn("account service is busy", "endpoint", endpoint, "error", errors.State("a request is already in flight"))
		return false
	}
	s.ready = false
	s.mu.Unlock()

	s.logger.Debug("dispatching request", "endpoint", endpoint, "request_id", requestID)

	go func() {
		defer cancel()
		res := s.do(ctx, req)
		if res.err != nil {
			s.logger.Warn("request failed", "endpoint", endpoint, "request_id", requestID, "reason", res.reason, "error", res.err)
		}
		s.release()
		done(res)
	}()
	return true
}

func (s *Service) release() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// do sends req and classifies the response. Panics while reading or parsing
// are reported as transport errors.
func (s *Service) do(ctx context.Context, req *http.Request) (res apiResult) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(ReasonFallback, errors.Transport(fmt.Errorf("panic: %v", r), ReasonFallback))
		}
	}()

	resp, err := s.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(ctx, err)
	}

	envelope, parseErr := parseBody(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := messageOf(envelope)
		if msg == "" {
			msg = ReasonFallback
		}
		return failure(msg, errors.Backend(msg).WithDetail("status", resp.StatusCode))
	}
	if parseErr != nil {
		return failure(ReasonFallback, errors.Transport(parseErr, "malformed response"))
	}
	if result, _ := envelope["result"].(string); result == "fail" {
		msg := messageOf(envelope)
		if msg == "" {
			msg = ReasonFallback
		}
		return failure(msg, errors.Backend(msg).WithDetail("status", resp.StatusCode))
	}

	if inner, ok := envelope["data"].(map[string]any); ok {
		return apiResult{data: inner}
	}
	return apiResult{data: envelope}
}

func transportFailure(ctx context.Context, err error) apiResult {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return failure(ReasonTimeout, errors.Transport(err, ReasonTimeout))
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return failure(ReasonAborted, errors.Transport(err, ReasonAborted))
	default:
		return failure(ReasonNetwork, errors.Transport(err, ReasonNetwork))
	}
}

// parseBody decodes a JSON object. Empty bodies and non-object JSON are errors.
func parseBody(body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.Transport(nil, "empty response body")
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.Transport(nil, "response body is not an object")
	}
	return out, nil
}

// messageOf extracts data.message, or a top-level message, from an envelope
func messageOf(envelope map[string]any) string {
	if data, ok := envelope["data"].(map[string]any); ok {
		if msg, ok := data["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if msg, ok := envelope["message"].(string); ok {
		return msg
	}
	return ""
}
