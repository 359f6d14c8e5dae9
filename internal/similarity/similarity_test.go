package similarity

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nilesh-r/jobsense/internal/logger"
)

type stubProvider struct {
	signal *Signal
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubProvider) Score(ctx context.Context, _ Request) (*Signal, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.signal, s.err
}

func TestHTTPScore(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != ScorePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"similarity": 0.75, "suggestions": ["Add docker"], "matched_skills": ["python"], "missing_skills": ["docker"]}`))
	}))
	defer srv.Close()

	client := NewHTTP(srv.URL+"/", zap.NewNop())
	signal, err := client.Score(context.Background(), Request{ResumeText: "resume", JobDescription: "jd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ResumeText != "resume" || got.JobDescription != "jd" {
		t.Fatalf("unexpected request payload: %+v", got)
	}

	if signal.Similarity != 0.75 {
		t.Fatalf("expected similarity 0.75, got %v", signal.Similarity)
	}

	if len(signal.Suggestions) != 1 || signal.Suggestions[0] != "Add docker" {
		t.Fatalf("unexpected suggestions: %v", signal.Suggestions)
	}

	if len(signal.MissingSkills) != 1 || signal.MissingSkills[0] != "docker" {
		t.Fatalf("unexpected missing skills: %v", signal.MissingSkills)
	}
}

func TestHTTPScoreGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"similarity": "0.5", "suggestions": []}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	signal, err := NewHTTP(srv.URL, nil).Score(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signal.Similarity != 0.5 {
		t.Fatalf("expected weakly typed similarity 0.5, got %v", signal.Similarity)
	}
}

func TestHTTPScoreErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{name: "not found", status: http.StatusNotFound, body: ``},
		{name: "invalid json", status: http.StatusOK, body: `not json`},
		{name: "missing similarity", status: http.StatusOK, body: `{"suggestions": []}`},
		{name: "null similarity", status: http.StatusOK, body: `{"similarity": null}`},
		{name: "non numeric similarity", status: http.StatusOK, body: `{"similarity": "high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := NewHTTP(srv.URL, nil).Score(context.Background(), Request{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewHTTPDefaults(t *testing.T) {
	client := NewHTTP("  ", nil)
	if client.BaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.BaseURL)
	}
}

func TestLookup(t *testing.T) {
	signal := &Signal{Similarity: 0.4, Suggestions: []string{"x"}}

	tests := []struct {
		name     string
		provider Provider
		timeout  time.Duration
		want     *Signal
		warns    int
	}{
		{name: "nil provider", provider: nil, want: nil},
		{name: "success", provider: &stubProvider{signal: signal}, want: signal},
		{name: "provider error", provider: &stubProvider{err: errors.New("connection refused")}, want: nil, warns: 1},
		{name: "nil signal", provider: &stubProvider{}, want: nil, warns: 1},
		{name: "nan signal", provider: &stubProvider{signal: &Signal{Similarity: math.NaN()}}, want: nil, warns: 1},
		{name: "timeout", provider: &stubProvider{signal: signal, delay: time.Second}, timeout: 10 * time.Millisecond, want: nil, warns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)

			got := Lookup(context.Background(), tt.provider, Request{}, tt.timeout, zap.New(core))
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}

			if n := observed.Len(); n != tt.warns {
				t.Fatalf("expected %d warnings, got %d", tt.warns, n)
			}

			wantTimeout := tt.timeout
			if wantTimeout == 0 {
				wantTimeout = DefaultTimeout
			}
			for _, entry := range observed.All() {
				if got := entry.ContextMap()[logger.FieldTimeout]; got != wantTimeout {
					t.Fatalf("expected %s=%s, got %v", logger.FieldTimeout, wantTimeout, got)
				}
			}
		})
	}
}

func TestLookupHonoursParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &stubProvider{signal: &Signal{Similarity: 1}, delay: time.Second}
	if got := Lookup(ctx, provider, Request{}, time.Minute, nil); got != nil {
		t.Fatalf("expected nil signal for cancelled context, got %+v", got)
	}
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	b, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = b
	m.ttls[key] = ttl
	return nil
}

func TestCachedProvider(t *testing.T) {
	next := &stubProvider{signal: &Signal{Similarity: 0.8, Suggestions: []string{"cached"}}}
	cache := newMemoryCache()
	provider := NewCached(next, cache, 0, nil)

	req := Request{ResumeText: "r", JobDescription: "j"}
	for i := 0; i < 3; i++ {
		signal, err := provider.Score(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if signal.Similarity != 0.8 || signal.Suggestions[0] != "cached" {
			t.Fatalf("unexpected signal: %+v", signal)
		}
	}

	if next.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", next.calls)
	}

	if ttl := cache.ttls[CacheKey(req)]; ttl != DefaultCacheTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
}

func TestCachedProviderBypassesBrokenCache(t *testing.T) {
	next := &stubProvider{signal: &Signal{Similarity: 0.3}}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")

	signal, err := NewCached(next, cache, time.Minute, nil).Score(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Similarity != 0.3 {
		t.Fatalf("unexpected signal: %+v", signal)
	}
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	next := &stubProvider{err: errors.New("boom")}
	cache := newMemoryCache()

	if _, err := NewCached(next, cache, time.Minute, nil).Score(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if len(cache.values) != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(Request{ResumeText: "ab", JobDescription: "c"})
	b := CacheKey(Request{ResumeText: "a", JobDescription: "bc"})
	if a == b {
		t.Fatalf("cache keys must depend on the field boundary")
	}
	if a != CacheKey(Request{ResumeText: "ab", JobDescription: "c"}) {
		t.Fatalf("cache keys must be stable")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	cache := NewRedisCache(context.Background(), RedisOptions{Addr: "127.0.0.1:1"}, nil)

	var out Signal
	found, err := cache.GetJSON(context.Background(), "key", &out)
	if err != nil || found {
		t.Fatalf("expected miss without error, got found=%v err=%v", found, err)
	}

	if err := cache.SetJSON(context.Background(), "key", &Signal{}, time.Minute); err != nil {
		t.Fatalf("expected writes to be dropped, got %v", err)
	}

	if err := cache.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
