package github

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog/log"
)

// maxRateLimitRetries bounds how many times a single request is replayed
// after being rate limited
const maxRateLimitRetries = 3

// rateLimitTransport implements GitHub's best practices
// for avoiding rate limits
type rateLimitTransport struct {
	transport        http.RoundTripper
	writeDelay       time.Duration
	delayNextRequest bool

	m sync.Mutex
}

// newRateLimitTransport creates new roundtripper rate limiter
func newRateLimitTransport(rt http.RoundTripper, writeDelay time.Duration) *rateLimitTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &rateLimitTransport{transport: rt, writeDelay: writeDelay}
}

// revive:disable-next-line:line-length-limit
func (rlt *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Request bodies are replayed on retry
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		r := req.Clone(req.Context())
		if body != nil {
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, retryAfter, err := rlt.roundTrip(r)
		if err != nil || retryAfter <= 0 || attempt == maxRateLimitRetries {
			return resp, err
		}

		// the limited response is replaced by the retried one
		resp.Body.Close()

		if err := sleep(req, retryAfter); err != nil {
			return nil, err
		}
	}
}

// roundTrip sends a single request. A positive duration means the request
// was rate limited and can be retried after that long.
func (rlt *rateLimitTransport) roundTrip(req *http.Request) (*http.Response, time.Duration, error) {
	// Make requests for a single installation serially
	rlt.m.Lock()
	defer rlt.m.Unlock()

	// If you're making a large number of POST, PATCH, PUT, or DELETE requests
	// for a single user, wait at least 1 second between each request.
	if rlt.delayNextRequest && rlt.writeDelay > 0 {
		log.Debug().Msgf("Sleeping %s between write operations", rlt.writeDelay)
		if err := sleep(req, rlt.writeDelay); err != nil {
			return nil, 0, err
		}
	}

	rlt.delayNextRequest = isWriteMethod(req.Method)

	resp, err := rlt.transport.RoundTrip(req)
	if err != nil {
		return resp, 0, err
	}

	// CheckResponse consumes the body, keep a copy for the caller
	r1, r2, err := drainBody(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	resp.Body = r1
	ghErr := github.CheckResponse(resp)
	resp.Body = r2

	// When you have been limited, use the Retry-After response header to slow
	// down.
	var arlErr *github.AbuseRateLimitError
	if errors.As(ghErr, &arlErr) {
		rlt.delayNextRequest = false
		log.Debug().Str("url", req.URL.String()).
			Msg("Abuse detection mechanism triggered")
		retryAfter := arlErr.GetRetryAfter()
		if retryAfter <= 0 {
			retryAfter = time.Minute
		}
		return resp, retryAfter, nil
	}

	var rlErr *github.RateLimitError
	if errors.As(ghErr, &rlErr) {
		rlt.delayNextRequest = false
		retryAfter := time.Until(rlErr.Rate.Reset.Time)
		log.Debug().Msgf("Rate limit %d reached, sleeping for %s",
			rlErr.Rate.Limit, retryAfter)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return resp, retryAfter, nil
	}

	return resp, 0, nil
}

// sleep waits for d or until the request context is done
func sleep(req *http.Request, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-req.Context().Done():
		return req.Context().Err()
	}
}

// drainBody reads all of b to memory and then returns two equivalent
// ReadClosers yielding the same bytes.
func drainBody(b io.ReadCloser) (r1, r2 io.ReadCloser, err error) {
	if b == nil || b == http.NoBody {
		// No copying needed. Preserve the magic sentinel meaning of NoBody.
		return http.NoBody, http.NoBody, nil
	}
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(b); err != nil {
		return nil, b, err
	}
	if err = b.Close(); err != nil {
		return nil, b, err
	}
	return io.NopCloser(&buf),
		io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
