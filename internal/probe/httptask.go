package probe

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// scanChunk is how much of the body is held in memory at once while
// searching for the pattern.
const scanChunk = 32 << 10

type HTTPTask struct {
	site   domain.Site
	Client *http.Client
}

func NewHTTPTask(site domain.Site) *HTTPTask {
	return &HTTPTask{
		site:   site,
		Client: &http.Client{Timeout: site.Timeout},
	}
}

// IsHTTPTaskFor reports whether uri uses the plain http scheme.
func IsHTTPTaskFor(uri string) bool { return hasSchemePrefix(uri, "http://") }

func (h *HTTPTask) Site() domain.Site { return h.site }

func (h *HTTPTask) Check(ctx context.Context) Result {
	start := time.Now()
	res := h.check(ctx)
	res.Duration = time.Since(start)
	return res
}

func (h *HTTPTask) check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, h.site.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.site.URI, nil)
	if err != nil {
		return failed(err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{
			Outcome:    domain.OutcomeRequestFailed,
			StatusCode: resp.StatusCode,
			Cause:      "http_status",
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if h.site.SearchContent == "" {
		return Result{Outcome: domain.OutcomeOK, StatusCode: resp.StatusCode}
	}

	found, err := bodyContains(resp.Body, h.site.SearchContent)
	if err != nil {
		r := failed(fmt.Errorf("read body: %w", err))
		r.StatusCode = resp.StatusCode
		return r
	}
	if !found {
		return Result{Outcome: domain.OutcomeContentMismatch, StatusCode: resp.StatusCode}
	}
	return Result{Outcome: domain.OutcomeOK, StatusCode: resp.StatusCode}
}

// bodyContains reads r chunk by chunk until pattern is seen or r is drained.
// The last len(pattern)-1 bytes of each chunk are carried into the next one
// so matches that straddle a chunk boundary are found.
func bodyContains(r io.Reader, pattern string) (bool, error) {
	p := []byte(pattern)
	keep := len(p) - 1
	br := bufio.NewReaderSize(r, scanChunk)
	chunk := make([]byte, scanChunk)
	window := make([]byte, 0, scanChunk+keep)
	for {
		n, err := br.Read(chunk)
		if n > 0 {
			window = append(window, chunk[:n]...)
			if bytes.Contains(window, p) {
				return true, nil
			}
			if len(window) > keep {
				window = append(window[:0], window[len(window)-keep:]...)
			}
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// HTTPSTask reuses the HTTP request/validate algorithm; only scheme matching
// and the transport's TLS floor differ.
type HTTPSTask struct {
	*HTTPTask
}

func NewHTTPSTask(site domain.Site) *HTTPSTask {
	t := NewHTTPTask(site)
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	tr.TLSHandshakeTimeout = site.Timeout
	t.Client.Transport = tr
	return &HTTPSTask{HTTPTask: t}
}

// IsHTTPSTaskFor reports whether uri uses the https scheme.
func IsHTTPSTaskFor(uri string) bool { return hasSchemePrefix(uri, "https://") }

func hasSchemePrefix(uri, prefix string) bool {
	return len(uri) >= len(prefix) && strings.EqualFold(uri[:len(prefix)], prefix)
}

func failed(err error) Result {
	if isTimeout(err) {
		return Result{Outcome: domain.OutcomeRequestTimeout, Cause: "timeout", Err: err}
	}
	return Result{Outcome: domain.OutcomeRequestFailed, Cause: Cause(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
