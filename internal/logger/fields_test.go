package logger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSimilarityFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Similarity
		want map[string]any
	}{
		{
			name: "http service",
			in:   Similarity{Provider: "http", Target: "http://localhost:8000", Timeout: 5 * time.Second},
			want: map[string]any{
				FieldProvider: "http",
				FieldTarget:   "http://localhost:8000",
				FieldTimeout:  5 * time.Second,
			},
		},
		{
			name: "gemini without timeout",
			in:   Similarity{Provider: " gemini ", Target: "gemini-2.5-flash"},
			want: map[string]any{FieldProvider: "gemini", FieldTarget: "gemini-2.5-flash"},
		},
		{
			name: "timeout only",
			in:   Similarity{Timeout: 250 * time.Millisecond},
			want: map[string]any{FieldTimeout: 250 * time.Millisecond},
		},
		{
			name: "blank",
			in:   Similarity{Provider: "  ", Timeout: -time.Second},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			enc := zapcore.NewMapObjectEncoder()
			for _, f := range tt.in.Fields() {
				f.AddTo(enc)
			}

			if len(enc.Fields) != len(tt.want) {
				t.Fatalf("expected %d fields, got %v", len(tt.want), enc.Fields)
			}
			for key, want := range tt.want {
				if got := enc.Fields[key]; got != want {
					t.Fatalf("field %s: expected %v, got %v", key, want, got)
				}
			}
		})
	}
}

func TestForSimilarity(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	l := ForSimilarity(zap.New(core), Similarity{Provider: "http", Target: "http://ai:8000", Timeout: time.Second})
	l.Info("lookup")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "http" || ctx[FieldTarget] != "http://ai:8000" || ctx[FieldTimeout] != time.Second {
		t.Fatalf("unexpected similarity fields: %v", ctx)
	}

	base := zap.New(core)
	if got := ForSimilarity(base, Similarity{}); got != base {
		t.Fatalf("logger without similarity data must be returned unchanged")
	}

	// nil falls back to a no-op logger
	ForSimilarity(nil, Similarity{Provider: "gemini"}).Info("dropped")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		json  bool
		debug bool
		level zapcore.Level
	}{
		{name: "console info", level: zapcore.InfoLevel},
		{name: "json debug", json: true, debug: true, level: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.json, tt.debug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !logger.Core().Enabled(tt.level) {
				t.Fatalf("expected level %s to be enabled", tt.level)
			}
			if tt.level == zapcore.InfoLevel && logger.Core().Enabled(zapcore.DebugLevel) {
				t.Fatalf("debug must be disabled without the debug flag")
			}
		})
	}
}
