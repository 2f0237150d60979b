package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Post is a task posted to a group.
type Post struct {
	ID int64 `json:"id"`

	// AuthorID is the user who created the task.
	AuthorID int64 `json:"usuarioId"`

	// GroupID is the owning group. Required and never reassigned.
	GroupID int64 `json:"grupoId"`

	Title string `json:"titulo"`
	Body  string `json:"conteudo"`

	// CreatedAt is set once, when the post is created.
	CreatedAt time.Time `json:"dataCriacao"`
}

// createdAtLayouts are tried in order. Zoneless timestamps are read as UTC.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts dataCriacao as RFC 3339 or as an ISO-8601 timestamp without
// a zone. An empty string or null leaves CreatedAt zero.
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	aux := struct {
		*plain
		CreatedAt *string `json:"dataCriacao"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.CreatedAt = time.Time{}
	if aux.CreatedAt == nil || *aux.CreatedAt == "" {
		return nil
	}
	t, err := parseCreatedAt(*aux.CreatedAt)
	if err != nil {
		return err
	}
	p.CreatedAt = t
	return nil
}

func parseCreatedAt(s string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dataCriacao: unrecognized timestamp %q", s)
}

// PostInput carries the writable fields of a post for create and update calls.
type PostInput struct {
	AuthorID int64  `json:"usuarioId"`
	GroupID  int64  `json:"grupoId"`
	Title    string `json:"titulo"`
	Body     string `json:"conteudo"`
}
