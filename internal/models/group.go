package models

// Group represents a task board shared by its members.
type Group struct {
	// ID is assigned by the backend, or by the local ID sequence for groups created offline.
	// Never reassigned once set.
	ID int64 `json:"id"`

	// Name is the display name of the group (e.g., "Casa", "Equipe Projeto A").
	Name string `json:"nome"`

	// Description is optional free text.
	Description string `json:"descricao"`

	// ShareCode is the 4-digit code used to find the group out of band.
	// Immutable once assigned.
	ShareCode string `json:"codigo,omitempty"`
}

// GroupInput carries the writable fields of a group for create and update calls.
type GroupInput struct {
	Name        string `json:"nome"`
	Description string `json:"descricao"`
}
