package util

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "counts runes not bytes",
			input:  "résumé text",
			limit:  6,
			expect: "résumé...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestJoinLimited(t *testing.T) {
	t.Parallel()

	got, rest := JoinLimited([]string{"a", "b", "c"}, 2)
	if got != "a, b" || rest != 1 {
		t.Fatalf("unexpected result %q, %d", got, rest)
	}

	got, rest = JoinLimited([]string{"a"}, 0)
	if got != "a" || rest != 0 {
		t.Fatalf("unexpected result %q, %d", got, rest)
	}
}
