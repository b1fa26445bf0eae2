// Package backendtest oferece um backend REST em memória para testes.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bailaconsara/portal/internal/backend"
)

// Server simula o backend da escola com usuários, oficinas, salas e posts.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int64
	passwords map[string]string
	users     map[string]*backend.UserProfile
	tokens    map[string]string
	talleres  []backend.Taller
	salas     []backend.Sala
	posts     []backend.Post
	enrolled  map[[2]int64]bool
	partners  map[[2]int64]string
	requests  []string
}

// New sobe o servidor; feche-o com Close.
func New() *Server {
	s := &Server{
		nextID:    1,
		passwords: make(map[string]string),
		users:     make(map[string]*backend.UserProfile),
		tokens:    make(map[string]string),
		enrolled:  make(map[[2]int64]bool),
		partners:  make(map[[2]int64]string),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// AddUser cadastra uma conta e devolve seu id.
func (s *Server) AddUser(email, password, role string, locked bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.passwords[email] = password
	s.users[email] = &backend.UserProfile{
		ID: id, Nombre: "Usuario", Apellidos: "Prueba", FechaNacimiento: "1990-04-12",
		Email: email, Role: role, IsNotLocked: !locked, Enabled: true,
	}
	return id
}

// AddTaller cadastra uma oficina e devolve seu id.
func (s *Server) AddTaller(t backend.Taller) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.talleres = append(s.talleres, t)
	return t.ID
}

// AddSala cadastra uma sala e devolve seu id.
func (s *Server) AddSala(sala backend.Sala) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sala.ID = s.nextID
	s.nextID++
	s.salas = append(s.salas, sala)
	return sala.ID
}

// AddPost cadastra uma publicação e devolve seu id.
func (s *Server) AddPost(p backend.Post) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.posts = append(s.posts, p)
	return p.ID
}

// Requests devolve "MÉTODO caminho" de cada requisição recebida.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count conta as requisições cujo caminho contém fragment.
func (s *Server) Count(fragment string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.Contains(r, fragment) {
			n++
		}
	}
	return n
}

// Enrolled informa se o usuário está inscrito na oficina.
func (s *Server) Enrolled(tallerID, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrolled[[2]int64{tallerID, userID}]
}

// Partner devolve o e-mail do par registrado.
func (s *Server) Partner(tallerID, userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partners[[2]int64{tallerID, userID}]
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.mu.Lock()
			s.requests = append(s.requests, req.Method+" "+req.URL.EscapedPath())
			s.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/auth/authenticate", s.authenticate)
	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Usuario registrado"})
	})
	r.Get("/auth/userProfile", s.profile)
	r.Get("/logout", s.authed(func(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
	}))
	r.Delete("/user/delete/{id}", s.authed(s.deleteUser))
	r.Get("/admin/listUsers", s.authed(s.listUsers))

	r.Get("/talleres/user/listTalleres", s.authed(func(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
		s.mu.Lock()
		list := append([]backend.Taller{}, s.talleres...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, list)
	}))
	r.Post("/talleres/user/signInTaller/{taller}/{user}", s.authed(s.enrollment(false)))
	r.Post("/talleres/user/signInParejaTaller/{taller}/{user}/{email}", s.authed(s.enrollment(true)))
	r.Post("/talleres/user/addPartnerTaller/{taller}/{user}/{email}", s.authed(s.addPartner))
	r.Get("/talleres/user/signOutTaller/{taller}/{user}", s.authed(s.signOut))
	r.Get("/talleres/user/isUserSignedUp/{taller}/{user}", s.authed(s.flag(false)))
	r.Get("/talleres/user/isUserHasPartner/{taller}/{user}", s.authed(s.flag(true)))

	r.Get("/salas/horarios/{dia}", s.salasByDia)
	r.Get("/posts/getPosts", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		list := append([]backend.Post{}, s.posts...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, list)
	})
	return r
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "JSON inválido"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[creds.Email]; !ok || pw != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciales incorrectas"})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = creds.Email
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) current(r *http.Request) *backend.UserProfile {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	if !ok {
		return nil
	}
	user, ok := s.users[email]
	if !ok {
		return nil
	}
	copied := *user
	return &copied
}

func (s *Server) authed(fn func(http.ResponseWriter, *http.Request, *backend.UserProfile)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.current(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token no válido"})
			return
		}
		fn(w, r, user)
	}
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user := s.current(r)
	if user == nil || r.URL.Query().Get("token") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token no válido"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			delete(s.passwords, email)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Usuario eliminado"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Usuario no encontrado"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, user *backend.UserProfile) {
	if user.Role != backend.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Acceso denegado"})
		return
	}
	s.mu.Lock()
	list := make([]backend.UserProfile, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, *u)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func pairKey(r *http.Request) [2]int64 {
	tallerID, _ := strconv.ParseInt(chi.URLParam(r, "taller"), 10, 64)
	userID, _ := strconv.ParseInt(chi.URLParam(r, "user"), 10, 64)
	return [2]int64{tallerID, userID}
}

func partnerEmail(r *http.Request) string {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		return chi.URLParam(r, "email")
	}
	return email
}

func (s *Server) enrollment(couple bool) func(http.ResponseWriter, *http.Request, *backend.UserProfile) {
	return func(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
		key := pairKey(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.enrolled[key] {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Ya estás inscrito en este taller"})
			return
		}
		s.enrolled[key] = true
		if couple {
			s.partners[key] = partnerEmail(r)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Te has inscrito con tu pareja"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Te has inscrito en el taller"})
	}
}

func (s *Server) addPartner(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
	key := pairKey(r)
	email := partnerEmail(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "La pareja no tiene cuenta"})
		return
	}
	s.enrolled[key] = true
	s.partners[key] = email
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pareja añadida"})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
	key := pairKey(r)
	s.mu.Lock()
	delete(s.enrolled, key)
	delete(s.partners, key)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Asistencia anulada"})
}

func (s *Server) flag(partner bool) func(http.ResponseWriter, *http.Request, *backend.UserProfile) {
	return func(w http.ResponseWriter, r *http.Request, _ *backend.UserProfile) {
		key := pairKey(r)
		s.mu.Lock()
		value := s.enrolled[key]
		if partner {
			value = s.partners[key] != ""
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, value)
	}
}

func (s *Server) salasByDia(w http.ResponseWriter, r *http.Request) {
	dia := chi.URLParam(r, "dia")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Sala, 0)
	for _, sala := range s.salas {
		for _, dg := range sala.DiasGeneros {
			if dg.Dia == dia {
				out = append(out, sala)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
