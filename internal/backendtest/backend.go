// Package backendtest runs an in-memory stand-in for the task-board backend in tests.
//
// It serves every endpoint the client consumes, routed with gorilla/mux, and has switches
// to simulate an outage (503 on everything) or rejected credentials (401 on everything).
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmynk/meumural/internal/models"
)

// Server is a fake backend.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	users         map[string]account // by email
	groups        map[int64]models.Group
	posts         map[int64]models.Post
	down          bool
	unauthorized  bool
	omitShareCode bool
	zoneless      bool
	authHeaders   []string
}

type account struct {
	user     models.User
	password string
}

// New starts a fake backend closed automatically at the end of the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		nextID: 1,
		users:  make(map[string]account),
		groups: make(map[int64]models.Group),
		posts:  make(map[int64]models.Post),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// SetDown makes every endpoint answer 503.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// SetUnauthorized makes every endpoint answer 401.
func (s *Server) SetUnauthorized(unauthorized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unauthorized = unauthorized
}

// SetOmitShareCode makes group creation return groups without a share code.
func (s *Server) SetOmitShareCode(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitShareCode = omit
}

// SetZonelessTimestamps makes post responses carry dataCriacao without a time zone,
// as some backends serialize local date-times.
func (s *Server) SetZonelessTimestamps(zoneless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoneless = zoneless
}

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.allocID(), Name: name, Email: email}
	s.users[email] = account{user: u, password: password}
	return u
}

// AddGroup stores a group directly and returns it with its assigned ID.
func (s *Server) AddGroup(g models.Group) models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.allocID()
	s.groups[g.ID] = g
	return g
}

// AuthHeaders returns the Authorization header of every request received, in order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// LastAuthHeader returns the Authorization header of the latest request.
func (s *Server) LastAuthHeader() string {
	h := s.AuthHeaders()
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

// TokenFor returns the token the fake issues to user.
func TokenFor(user models.User) string {
	return "token-" + strconv.FormatInt(user.ID, 10)
}

func (s *Server) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests, s.gate)

	r.HandleFunc("/usuario/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/usuario/criar", s.register).Methods(http.MethodPost)

	r.HandleFunc("/grupo/listar", s.listGroups).Methods(http.MethodGet)
	r.HandleFunc("/grupo/listarPorId/{id:[0-9]+}", s.getGroup).Methods(http.MethodGet)
	r.HandleFunc("/grupo/criar", s.createGroup).Methods(http.MethodPost)
	r.HandleFunc("/grupo/atualizar/{id:[0-9]+}", s.updateGroup).Methods(http.MethodPut)
	r.HandleFunc("/grupo/apagar/{id:[0-9]+}", s.deleteGroup).Methods(http.MethodDelete)

	r.HandleFunc("/postagem/listarPorGrupo/{id:[0-9]+}", s.listPostsByGroup).Methods(http.MethodGet)
	r.HandleFunc("/postagem/listarPorUsuario/{id:[0-9]+}", s.listPostsByUser).Methods(http.MethodGet)
	r.HandleFunc("/postagem/listarPorId/{id:[0-9]+}", s.getPost).Methods(http.MethodGet)
	r.HandleFunc("/postagem/criar", s.createPost).Methods(http.MethodPost)
	r.HandleFunc("/postagem/atualizar/{id:[0-9]+}", s.updatePost).Methods(http.MethodPut)
	r.HandleFunc("/postagem/apagar/{id:[0-9]+}", s.deletePost).Methods(http.MethodDelete)
	return r
}

// gate records headers and applies the outage and 401 switches.
func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		down, unauthorized := s.down, s.unauthorized
		s.mu.Unlock()

		switch {
		case down:
			writeError(w, http.StatusServiceUnavailable, "backend unavailable")
		case unauthorized:
			writeError(w, http.StatusUnauthorized, "token inválido")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	acc, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "email ou senha inválidos")
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResult{Token: TokenFor(acc.user), User: acc.user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeError(w, http.StatusConflict, "email já cadastrado")
		return
	}
	u := models.User{ID: s.allocID(), Name: req.Name, Email: req.Email}
	s.users[req.Email] = account{user: u, password: req.Password}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Group, 0, len(s.groups))
	for id := int64(1); id < s.nextID; id++ {
		if g, ok := s.groups[id]; ok {
			out = append(out, g)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	g, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "grupo não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := models.Group{ID: s.allocID(), Name: in.Name, Description: in.Description}
	if !s.omitShareCode {
		g.ShareCode = fmt.Sprintf("%04d", g.ID%10000)
	}
	s.groups[g.ID] = g
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if !decode(w, r, &in) {
		return
	}
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		writeError(w, http.StatusNotFound, "grupo não encontrado")
		return
	}
	g.Name, g.Description = in.Name, in.Description
	s.groups[id] = g
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		writeError(w, http.StatusNotFound, "grupo não encontrado")
		return
	}
	delete(s.groups, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPostsByGroup(w http.ResponseWriter, r *http.Request) {
	groupID := pathID(r)
	s.writePosts(w, func(p models.Post) bool { return p.GroupID == groupID })
}

func (s *Server) listPostsByUser(w http.ResponseWriter, r *http.Request) {
	userID := pathID(r)
	s.writePosts(w, func(p models.Post) bool { return p.AuthorID == userID })
}

func (s *Server) writePosts(w http.ResponseWriter, keep func(models.Post) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []any{}
	for id := int64(1); id < s.nextID; id++ {
		if p, ok := s.posts[id]; ok && keep(p) {
			out = append(out, s.wirePost(p))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	p, ok := s.posts[id]
	wire := s.wirePost(p)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "postagem não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, wire)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[in.GroupID]; !ok {
		writeError(w, http.StatusBadRequest, "grupo inexistente")
		return
	}
	p := models.Post{
		ID:        s.allocID(),
		AuthorID:  in.AuthorID,
		GroupID:   in.GroupID,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.posts[p.ID] = p
	writeJSON(w, http.StatusCreated, s.wirePost(p))
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !decode(w, r, &in) {
		return
	}
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "postagem não encontrada")
		return
	}
	p.Title, p.Body = in.Title, in.Body
	s.posts[id] = p
	writeJSON(w, http.StatusOK, s.wirePost(p))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		writeError(w, http.StatusNotFound, "postagem não encontrada")
		return
	}
	delete(s.posts, id)
	w.WriteHeader(http.StatusNoContent)
}

// wirePost returns p as the backend serializes it. Callers hold s.mu.
func (s *Server) wirePost(p models.Post) any {
	if !s.zoneless {
		return p
	}
	return struct {
		ID        int64  `json:"id"`
		AuthorID  int64  `json:"usuarioId"`
		GroupID   int64  `json:"grupoId"`
		Title     string `json:"titulo"`
		Body      string `json:"conteudo"`
		CreatedAt string `json:"dataCriacao"`
	}{p.ID, p.AuthorID, p.GroupID, p.Title, p.Body, p.CreatedAt.Format("2006-01-02T15:04:05")}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "corpo inválido")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
