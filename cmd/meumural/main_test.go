package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mmynk/meumural/internal/backendtest"
	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/session"
)

// setupCLI points the CLI at a fake backend and a temp database.
func setupCLI(t *testing.T) *backendtest.Server {
	t.Helper()
	backend := backendtest.New(t)
	t.Setenv("API_BASE_URL", backend.URL)
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	return backend
}

func runJSON(t *testing.T, out any, args ...string) {
	t.Helper()
	var buf bytes.Buffer
	if err := run(context.Background(), args, &buf); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	if out != nil {
		if err := json.Unmarshal(buf.Bytes(), out); err != nil {
			t.Fatalf("run %v: invalid JSON %q: %v", args, buf.String(), err)
		}
	}
}

func TestRun_LoginPersistsAcrossInvocations(t *testing.T) {
	backend := setupCLI(t)
	user := backend.AddUser("Ana", "ana@example.com", "segredo")

	var res session.Result
	runJSON(t, &res, "-cmd", "login", "-email", "ana@example.com", "-password", "segredo")
	if res.Offline || res.User.ID != user.ID {
		t.Errorf("login result = %+v, want online user %d", res, user.ID)
	}

	var snap session.Snapshot
	runJSON(t, &snap, "-cmd", "whoami")
	if snap.State != session.Authenticated || snap.User == nil || snap.User.ID != user.ID {
		t.Errorf("whoami = %+v, want authenticated as %d", snap, user.ID)
	}

	runJSON(t, &snap, "-cmd", "logout")
	if snap.State != session.Anonymous {
		t.Errorf("after logout state = %v, want anonymous", snap.State)
	}
}

func TestRun_GroupAndPostFlow(t *testing.T) {
	backend := setupCLI(t)
	backend.AddUser("Ana", "ana@example.com", "segredo")
	runJSON(t, nil, "-cmd", "login", "-email", "ana@example.com", "-password", "segredo")

	var g models.Group
	runJSON(t, &g, "-cmd", "create-group", "-name", "Casa", "-description", "tarefas")
	if g.ID == 0 || g.Name != "Casa" {
		t.Fatalf("unexpected group %+v", g)
	}

	var p models.Post
	runJSON(t, &p, "-cmd", "create-post", "-group", strconv.FormatInt(g.ID, 10), "-title", "Varrer")
	if p.GroupID != g.ID || p.Title != "Varrer" || p.AuthorID == 0 {
		t.Errorf("unexpected post %+v", p)
	}

	var posts []models.Post
	runJSON(t, &posts, "-cmd", "posts", "-group", strconv.FormatInt(g.ID, 10))
	if len(posts) != 1 {
		t.Errorf("expected 1 post, got %+v", posts)
	}

	var board []struct {
		ID        int64 `json:"id"`
		PostCount int   `json:"quantidadePostagens"`
	}
	runJSON(t, &board, "-cmd", "overview")
	if len(board) != 1 || board[0].ID != g.ID || board[0].PostCount != 1 {
		t.Errorf("unexpected overview %+v", board)
	}
}

func TestRun_OfflineCreateGroup(t *testing.T) {
	backend := setupCLI(t)
	backend.SetDown(true)

	var g models.Group
	runJSON(t, &g, "-cmd", "create-group", "-name", "Casa")
	if g.ID == 0 || len(g.ShareCode) != 4 {
		t.Errorf("unexpected offline group %+v", g)
	}

	var groups []models.Group
	runJSON(t, &groups, "-cmd", "groups")
	if len(groups) != 1 || groups[0] != g {
		t.Errorf("offline groups = %+v, want only %+v", groups, g)
	}
}

func TestRun_Errors(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"-cmd", "dance"}, "unknown command"},
		{"missing id", []string{"-cmd", "group"}, "-id required"},
		{"missing group", []string{"-cmd", "posts"}, "-group required"},
		{"post while anonymous", []string{"-cmd", "create-post", "-group", "1", "-title", "x"}, "not signed in"},
		{"login without email", []string{"-cmd", "login"}, "-email required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run %v error = %v, want containing %q", tt.args, err, tt.want)
			}
		})
	}
}
