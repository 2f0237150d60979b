package transport

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"grupo não encontrado"}`, "grupo não encontrado"},
		{"mensagem", `{"mensagem":"token inválido"}`, "token inválido"},
		{"erro", `{"erro":"falhou"}`, "falhou"},
		{"plain text", "  Service Unavailable \n", "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes then a two-byte rune straddling the limit.
	body := strings.Repeat("a", maxMessageLen-1) + "ção"

	got := errorMessage([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) > maxMessageLen {
		t.Errorf("len = %d, want at most %d", len(got), maxMessageLen)
	}
	if got != strings.Repeat("a", maxMessageLen-1) {
		t.Errorf("unexpected tail %q", got[len(got)-3:])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本", 4, "日"},
		{"日本", 2, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
