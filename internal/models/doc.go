// Package models defines the entities the task-board client exchanges with the backend
// and keeps in its local mirror.
//
// # Entities
//
//   - User: the authenticated identity held by a session
//   - Group: a shared board that users join through a share code
//   - Post: a task posted to exactly one group
//
// JSON field names follow the backend contract (nome, descricao, codigo, usuarioId, ...),
// so the same structs are used on the wire and in the local mirror.
//
// # Identifiers
//
// IDs are numeric. Backend-assigned IDs and locally synthesized ones share the same space;
// local IDs come from a monotonic sequence seeded from wall-clock milliseconds, so they are
// large and do not collide with each other.
package models
