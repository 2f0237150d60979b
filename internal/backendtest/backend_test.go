package backendtest

import (
	"net/http"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer token-1": "token-1",
		"Basic abc":      "",
		"Bearer":         "",
		"":               "",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestGate(t *testing.T) {
	s := New(t)

	resp, err := http.Get(s.URL + "/grupo/listar")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	s.SetDown(true)
	resp, err = http.Get(s.URL + "/grupo/listar")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	if got := len(s.AuthHeaders()); got != 2 {
		t.Errorf("recorded %d requests, want 2", got)
	}
}
