package sharecode

import (
	"regexp"
	"testing"
	"time"
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

func TestGenerate_Format(t *testing.T) {
	g := New()
	for i := 0; i < 200; i++ {
		code := g.Generate(nil)
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, codePattern)
		}
	}
}

func TestGenerate_ZeroPadded(t *testing.T) {
	g := NewWithSource(func(int) int { return 7 }, time.Now)
	if code := g.Generate(map[string]struct{}{}); code != "0007" {
		t.Errorf("code = %q, want 0007", code)
	}
}

func TestGenerate_AvoidsExisting(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]struct{}
		want     string
	}{
		{
			name:     "empty set takes first draw",
			existing: map[string]struct{}{},
			want:     "1234",
		},
		{
			name:     "first draw taken falls through to sweep",
			existing: map[string]struct{}{"1234": {}},
			want:     "1235",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Deterministic source: every draw returns 1234.
			g := NewWithSource(func(int) int { return 1234 }, time.Now)
			if got := g.Generate(tt.existing); got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_FindsLastFreeCode(t *testing.T) {
	existing := make(map[string]struct{}, Space-1)
	for i := 0; i < Space; i++ {
		if i == 4821 {
			continue
		}
		existing[format(i)] = struct{}{}
	}

	g := New()
	if got := g.Generate(existing); got != "4821" {
		t.Errorf("Generate() = %q, want the only free code 4821", got)
	}
}

func TestGenerate_SaturatedTerminates(t *testing.T) {
	existing := make(map[string]struct{}, Space)
	for i := 0; i < Space; i++ {
		existing[format(i)] = struct{}{}
	}

	now := time.UnixMilli(1760693415123)
	g := NewWithSource(New().intn, func() time.Time { return now })

	got := g.Generate(existing)
	if !codePattern.MatchString(got) {
		t.Fatalf("code %q does not match %s", got, codePattern)
	}
	if got != "5123" {
		t.Errorf("fallback code = %q, want last four digits of the clock 5123", got)
	}
}
