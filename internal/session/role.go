package session

import "strings"

// Role é o papel de autorização do visitante.
type Role string

const (
	Anonymous Role = "ANONYMOUS"
	User      Role = "USER"
	Admin     Role = "ADMIN"
)

func (r Role) rank() int {
	switch r {
	case Admin:
		return 2
	case User:
		return 1
	default:
		return 0
	}
}

// Satisfies aplica a hierarquia ADMIN ⊇ USER ⊇ ANONYMOUS.
func (r Role) Satisfies(required Role) bool {
	return r.rank() >= required.rank()
}

// Valid informa se r é um dos três papéis conhecidos.
func (r Role) Valid() bool {
	switch r {
	case Anonymous, User, Admin:
		return true
	}
	return false
}

// ParseRole normaliza o papel vindo do backend; valores desconhecidos viram ANONYMOUS.
func ParseRole(raw string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if r == User || r == Admin {
		return r
	}
	return Anonymous
}

// Session é a identidade corrente do visitante.
type Session struct {
	UserID int64  `json:"userId"`
	Role   Role   `json:"role"`
	Token  string `json:"-"`
}

// Can diz se a sessão atende ao papel exigido.
func (s Session) Can(required Role) bool {
	return s.Role.Satisfies(required)
}

// Authenticated é verdadeiro para USER e ADMIN.
func (s Session) Authenticated() bool {
	return s.Can(User)
}
