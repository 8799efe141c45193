package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/leadform/internal/infrastructure/config"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html><html><body><form id="c"><input name="email"></form></body></html>`

func testConfig() config.FetchConfig {
	cfg := config.Default().Fetch
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) RecordFetch(result string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func fetchError(t *testing.T, err error) *Error {
	t.Helper()
	var fe *Error
	require.True(t, errors.As(err, &fe), "expected *fetch.Error, got %v", err)
	return fe
}

func TestFetchHTML(t *testing.T) {
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(testConfig(), WithMetrics(rec))

	got, err := c.FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, got)
	assert.Equal(t, "leadform-scanner/1.0", userAgent.Load())
	assert.Equal(t, []string{"ok"}, rec.results)
}

func TestFetchHTMLCompressed(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"zstd": func(b []byte) []byte {
			enc, _ := zstd.NewWriter(nil)
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		},
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			body := encode([]byte(page))
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.Header.Get("Accept-Encoding"), name)
				w.Header().Set("Content-Encoding", name)
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			got, err := New(testConfig()).FetchHTML(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, page, got)
		})
	}
}

func TestFetchHTMLCharset(t *testing.T) {
	text := "<html><body><p>Le garçon a commandé un café crème et une crêpe à la française. " +
		"Déjà vu, très élégant, où est la bibliothèque? Café</p></body></html>"
	latin1 := make([]byte, 0, len(text))
	for _, r := range text {
		latin1 = append(latin1, byte(r))
	}

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"header charset", "text/html; charset=iso-8859-1", latin1},
		{"meta charset", "text/html", append([]byte(`<meta charset="windows-1252">`), latin1...)},
		{"detected", "text/html", latin1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			got, err := New(testConfig()).FetchHTML(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Contains(t, got, "café crème")
		})
	}
}

func TestFetchHTMLStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	_, err := New(cfg).FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)

	fe := fetchError(t, err)
	assert.Equal(t, KindStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, int32(1), hits.Load(), "client errors are not retried")
}

func TestFetchHTMLRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	got, err := New(cfg).FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, got)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchHTMLRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	_, err := New(cfg).FetchHTML(context.Background(), srv.URL)

	fe := fetchError(t, err)
	assert.Equal(t, KindStatus, fe.Kind)
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchHTMLBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("<p>x</p>"), 1000))
	}))
	defer srv.Close()

	rec := &recorder{}
	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	_, err := New(cfg, WithMetrics(rec)).FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, scraper.ErrResourceExhausted)
	assert.Equal(t, []string{"too_large"}, rec.results)
}

func TestFetchHTMLRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/{n}", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.PathValue("n"))
		if n == 0 {
			fmt.Fprint(w, page)
			return
		}
		http.Redirect(w, r, "/hop/"+strconv.Itoa(n-1), http.StatusFound)
	})
	mux.HandleFunc("/ftp", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "ftp://example.com/file", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 3
	c := New(cfg)

	got, err := c.FetchHTML(context.Background(), srv.URL+"/hop/3")
	require.NoError(t, err)
	assert.Equal(t, page, got)

	_, err = c.FetchHTML(context.Background(), srv.URL+"/hop/4")
	fe := fetchError(t, err)
	assert.Equal(t, KindRedirect, fe.Kind)
	assert.ErrorIs(t, err, ErrTooManyRedirects)

	_, err = c.FetchHTML(context.Background(), srv.URL+"/ftp")
	fe = fetchError(t, err)
	assert.Equal(t, KindRedirect, fe.Kind)
	assert.ErrorIs(t, err, ErrRedirectScheme)
}

func TestFetchHTMLRedirectLimitStopsEarly(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/{n}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		n, _ := strconv.Atoi(r.PathValue("n"))
		if n == 0 {
			fmt.Fprint(w, page)
			return
		}
		http.Redirect(w, r, "/hop/"+strconv.Itoa(n-1), http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 1
	_, err := New(cfg).FetchHTML(context.Background(), srv.URL+"/hop/8")

	fe := fetchError(t, err)
	assert.Equal(t, KindRedirect, fe.Kind)
	assert.ErrorIs(t, err, ErrTooManyRedirects)
	assert.Equal(t, int32(2), hits.Load(), "no requests past the configured limit")
}

func TestFetchHTMLTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	_, err := New(cfg).FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestFetchHTMLCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig()).FetchHTML(ctx, srv.URL)
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}

func TestFetchHTMLInvalidURL(t *testing.T) {
	c := New(testConfig())

	for _, raw := range []string{"", "ftp://example.com", "http://", "::not a url"} {
		t.Run(raw, func(t *testing.T) {
			_, err := c.FetchHTML(context.Background(), raw)
			fe := fetchError(t, err)
			assert.Equal(t, KindInvalidURL, fe.Kind)
		})
	}
}

func TestFetchHTMLRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	_, err := New(testConfig()).FetchHTML(context.Background(), srv.URL)
	fe := fetchError(t, err)
	assert.Equal(t, KindContent, fe.Kind)
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestFetchHTMLEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got, err := New(testConfig()).FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchHTMLCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breakers := resilience.NewGroup(resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
		IsFailure: func(err error) bool {
			var fe *Error
			return errors.As(err, &fe) && fe.transient()
		},
	})
	c := New(testConfig(), WithBreakers(breakers))

	for i := 0; i < 2; i++ {
		_, err := c.FetchHTML(context.Background(), srv.URL)
		assert.Equal(t, KindStatus, fetchError(t, err).Kind)
	}

	_, err := c.FetchHTML(context.Background(), srv.URL)
	fe := fetchError(t, err)
	assert.Equal(t, KindCircuitOpen, fe.Kind)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())

	states := c.BreakerStates()
	require.Len(t, states, 1)
	for _, state := range states {
		assert.Equal(t, resilience.StateOpen, state)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindStatus, URL: "https://example.com", StatusCode: 500}
	assert.Equal(t, "fetch https://example.com: status: HTTP 500", err.Error())

	err = &Error{Kind: KindTransport, URL: "https://example.com", Err: errors.New("refused")}
	assert.Equal(t, "fetch https://example.com: transport: refused", err.Error())
	assert.False(t, err.Timeout())
}
