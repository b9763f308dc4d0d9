package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	if cfg.MinRequestInterval == 0 {
		cfg.MinRequestInterval = time.Millisecond
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = time.Millisecond
	}
	return New(cfg, nil), server
}

func generateResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGenerateCropTextSuccess(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generateResponse("model output")))
	}, Config{Model: "gemini-1.5-flash"})

	text, err := client.GenerateCropText(context.Background(), "doc text", "crops.pdf")
	if err != nil {
		t.Fatalf("GenerateCropText: %v", err)
	}
	if text != "model output" {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(gotPath, "gemini-1.5-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(generateResponse("third time")))
	}, Config{MaxAttempts: 3})

	text, err := client.GenerateCropText(context.Background(), "doc", "f.pdf")
	if err != nil {
		t.Fatalf("GenerateCropText: %v", err)
	}
	if text != "third time" || calls != 3 {
		t.Errorf("text=%q calls=%d", text, calls)
	}
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}, Config{MaxAttempts: 3})

	_, err := client.GenerateCropText(context.Background(), "doc", "f.pdf")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want exactly 3", calls)
	}
	if domain.IsKind(err, domain.ErrRateLimited) {
		t.Error("server errors must not be reported as rate limit exhaustion")
	}
}

func TestGenerateRateLimitExhaustionIsTyped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}, Config{MaxAttempts: 2})

	_, err := client.GenerateCropText(context.Background(), "doc", "f.pdf")
	if !domain.IsKind(err, domain.ErrRateLimited) {
		t.Fatalf("error = %v, want rate limited kind", err)
	}
}

func TestGenerateHonorsRetryAfter(t *testing.T) {
	var mu sync.Mutex
	var calls []time.Time
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, time.Now())
		n := len(calls)
		mu.Unlock()
		if n == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(generateResponse("after waiting")))
	}, Config{MaxAttempts: 2, BaseRetryDelay: time.Millisecond})

	if _, err := client.GenerateCropText(context.Background(), "doc", "f.pdf"); err != nil {
		t.Fatalf("GenerateCropText: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if gap := calls[1].Sub(calls[0]); gap < time.Second {
		t.Errorf("gap = %v, want at least the 1s Retry-After", gap)
	}
}

func TestRequestsAreSpacedByMinInterval(t *testing.T) {
	const interval = 80 * time.Millisecond

	var mu sync.Mutex
	var starts []time.Time
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(generateResponse("ok")))
	}, Config{MinRequestInterval: interval})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.GenerateCropText(ctx, "doc", "f.pdf"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if len(starts) != 3 {
		t.Fatalf("starts = %d, want 3", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval-10*time.Millisecond {
			t.Errorf("gap %d = %v, want about %v", i, gap, interval)
		}
	}
}

func TestGenerateContextCancellationAborts(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}, Config{MaxAttempts: 3, BaseRetryDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateCropText(ctx, "doc", "f.pdf")
	if err == nil {
		t.Fatal("expected context error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry while waiting out the backoff)", calls)
	}
}

func TestGenerateRetriesAfterRequestTimeout(t *testing.T) {
	var mu sync.Mutex
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			time.Sleep(300 * time.Millisecond)
			return
		}
		_, _ = w.Write([]byte(generateResponse("recovered")))
	}, Config{MaxAttempts: 3, HTTPTimeout: 50 * time.Millisecond})

	text, err := client.GenerateCropText(context.Background(), "doc", "f.pdf")
	if err != nil {
		t.Fatalf("GenerateCropText: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q", text)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (slow first attempt retried)", calls)
	}
}

func TestEmbedText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "embedContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}, Config{})

	vector, err := client.EmbedText(context.Background(), "wheat")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vector) != 3 {
		t.Errorf("vector = %v", vector)
	}
}

func TestDecodeGeneratedTextShapes(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  string
		shape string
	}{
		{
			name:  "candidates parts",
			raw:   `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`,
			want:  "a\nb",
			shape: "candidates.parts",
		},
		{
			name:  "top level text",
			raw:   `{"text":"plain"}`,
			want:  "plain",
			shape: "top-level",
		},
		{
			name:  "flat candidate content",
			raw:   `{"candidates":[{"content":{"text":"legacy"}}]}`,
			want:  "legacy",
			shape: "candidates.content",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, shape, err := decodeGeneratedText([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if text != tc.want || shape != tc.shape {
				t.Errorf("got (%q, %q), want (%q, %q)", text, shape, tc.want, tc.shape)
			}
		})
	}
}

func TestDecodeGeneratedTextEmpty(t *testing.T) {
	for _, raw := range []string{`{}`, `{"candidates":[]}`, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`} {
		_, _, err := decodeGeneratedText([]byte(raw))
		if !domain.IsKind(err, domain.ErrEmptyModelOutput) {
			t.Errorf("decode(%s) error = %v, want empty model output kind", raw, err)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("2"); got != 2*time.Second {
		t.Errorf("parseRetryAfter(2) = %v", got)
	}
	for _, v := range []string{"", "later", "-1"} {
		if got := parseRetryAfter(v); got != 0 {
			t.Errorf("parseRetryAfter(%q) = %v, want 0", v, got)
		}
	}
}
