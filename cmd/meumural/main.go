// Command meumural runs one task-board operation against the backend, falling back to the
// local mirror when the backend is unreachable, and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/meumural/internal/auth"
	"github.com/mmynk/meumural/internal/config"
	"github.com/mmynk/meumural/internal/metrics"
	"github.com/mmynk/meumural/internal/mirror"
	"github.com/mmynk/meumural/internal/models"
	"github.com/mmynk/meumural/internal/service"
	"github.com/mmynk/meumural/internal/session"
	"github.com/mmynk/meumural/internal/sharecode"
	"github.com/mmynk/meumural/internal/storage"
	"github.com/mmynk/meumural/internal/storage/memory"
	"github.com/mmynk/meumural/internal/storage/sqlite"
	"github.com/mmynk/meumural/internal/transport"
	"github.com/mmynk/meumural/pkg/logging"
)

const commands = "login|signup|logout|whoami|groups|group|create-group|update-group|delete-group|" +
	"posts|post|user-posts|create-post|update-post|delete-post|overview"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	cmd         string
	email       string
	password    string
	name        string
	description string
	title       string
	body        string
	id          int64
	group       int64
	ephemeral   bool
}

// app is everything one command can reach.
type app struct {
	holder *session.Holder
	groups *service.GroupService
	posts  *service.PostService
	board  *service.BoardService
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("meumural", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.cmd, "cmd", "groups", "Command: "+commands)
	fs.StringVar(&o.email, "email", "", "Email (login/signup)")
	fs.StringVar(&o.password, "password", "", "Password (login/signup)")
	fs.StringVar(&o.name, "name", "", "User or group name")
	fs.StringVar(&o.description, "description", "", "Group description")
	fs.StringVar(&o.title, "title", "", "Post title")
	fs.StringVar(&o.body, "body", "", "Post content")
	fs.Int64Var(&o.id, "id", 0, "Group, post or user ID")
	fs.Int64Var(&o.group, "group", 0, "Group ID (posts)")
	fs.BoolVar(&o.ephemeral, "ephemeral", false, "Keep the mirror and session in memory only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	var store storage.Store
	if o.ephemeral {
		store = memory.New()
	} else {
		store, err = sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		slog.Debug("Storage initialized", "database", cfg.DBPath)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	defer logMetrics(reg)

	creds := auth.NewCredentialStore(store)
	client := transport.NewAuthenticated(cfg.APIBaseURL, creds,
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithMetrics(m),
	)
	local := mirror.New(store)

	opts := []service.Option{
		service.WithMetrics(m),
		service.WithDeletePolicy(cfg.Policy()),
		service.WithOfflineExamples(cfg.OfflineExamples),
	}
	groups := service.NewGroupService(client, local, sharecode.New(), opts...)
	posts := service.NewPostService(client, local, opts...)
	a := &app{
		holder: session.New(service.NewAuthService(client, creds, slog.Default()), creds, local),
		groups: groups,
		posts:  posts,
		board:  service.NewBoardService(groups, posts),
	}
	defer a.holder.Close()
	a.holder.Start(ctx)

	out, err := a.dispatch(ctx, o)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *app) dispatch(ctx context.Context, o options) (any, error) {
	switch o.cmd {
	case "login":
		if o.email == "" {
			return nil, errors.New("-email required")
		}
		return a.holder.SignIn(ctx, o.email, o.password), nil
	case "signup":
		if o.email == "" {
			return nil, errors.New("-email required")
		}
		return a.holder.SignUp(ctx, o.name, o.email, o.password), nil
	case "logout":
		a.holder.SignOut(ctx)
		return a.holder.Snapshot(), nil
	case "whoami":
		return a.holder.Snapshot(), nil

	case "groups":
		return a.groups.ListGroups(ctx)
	case "group":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		return a.groups.GetGroup(ctx, o.id)
	case "create-group":
		return a.groups.CreateGroup(ctx, groupInput(o))
	case "update-group":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		return a.groups.UpdateGroup(ctx, o.id, groupInput(o))
	case "delete-group":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		return deleted(o.id), a.groups.DeleteGroup(ctx, o.id)

	case "posts":
		if err := requireID("-group", o.group); err != nil {
			return nil, err
		}
		return a.posts.ListPosts(ctx, o.group)
	case "post":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		return a.posts.GetPost(ctx, o.id)
	case "user-posts":
		id := o.id
		if id == 0 {
			if u := a.holder.Snapshot().User; u != nil {
				id = u.ID
			}
		}
		if err := requireID("-id", id); err != nil {
			return nil, err
		}
		return a.posts.ListPostsByUser(ctx, id)
	case "create-post":
		in, err := a.postInput(o)
		if err != nil {
			return nil, err
		}
		return a.posts.CreatePost(ctx, in)
	case "update-post":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		in, err := a.postInput(o)
		if err != nil {
			return nil, err
		}
		return a.posts.UpdatePost(ctx, o.id, in)
	case "delete-post":
		if err := requireID("-id", o.id); err != nil {
			return nil, err
		}
		if err := requireID("-group", o.group); err != nil {
			return nil, err
		}
		return deleted(o.id), a.posts.DeletePost(ctx, o.group, o.id)

	case "overview":
		return a.board.Overview(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q (want %s)", o.cmd, commands)
	}
}

// postInput builds a post authored by the signed-in user.
func (a *app) postInput(o options) (models.PostInput, error) {
	user := a.holder.Snapshot().User
	if user == nil {
		return models.PostInput{}, errors.New("not signed in, run -cmd login first")
	}
	return models.PostInput{AuthorID: user.ID, GroupID: o.group, Title: o.title, Body: o.body}, nil
}

func groupInput(o options) models.GroupInput {
	return models.GroupInput{Name: o.name, Description: o.description}
}

func requireID(flagName string, id int64) error {
	if id == 0 {
		return fmt.Errorf("%s required", flagName)
	}
	return nil
}

func deleted(id int64) map[string]int64 {
	return map[string]int64{"apagado": id}
}

// logMetrics logs the fallback and request totals gathered during the command.
func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		slog.Warn("Failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
		slog.Debug("Metrics", "name", mf.GetName(), "series", len(mf.GetMetric()), "total", total)
	}
}
