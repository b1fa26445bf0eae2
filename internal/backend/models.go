package backend

import (
	"encoding/json"
	"strings"
)

// Roles devolvidos pelo perfil do usuário.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Credentials é o corpo de auth/authenticate.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration é o corpo de auth/register.
type Registration struct {
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	FechaNacimiento string `json:"fechanacimiento"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Bailerol        string `json:"bailerol"`
	Password        string `json:"password"`
}

// UserProfile é o usuário como devolvido pelo backend.
type UserProfile struct {
	ID              int64  `json:"id"`
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	FechaNacimiento string `json:"fechanacimiento"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Bailerol        string `json:"bailerol"`
	Role            string `json:"role"`
	IsNotLocked     bool   `json:"isNotLocked"`
	Enabled         bool   `json:"enabled"`
}

// ProfileUpdate é o corpo de user/update/{id}.
type ProfileUpdate struct {
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	FechaNacimiento string `json:"fechanacimiento"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Bailerol        string `json:"bailerol"`
}

// PasswordChange é o corpo de forgotPassword/changePassword/{email}.
type PasswordChange struct {
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Taller é o registro de oficina trafegado com o backend.
type Taller struct {
	ID         int64  `json:"id,omitempty"`
	Nombre     string `json:"nombre"`
	Modalidad  string `json:"modalidad"`
	Profesores string `json:"profesores"`
	Fecha      string `json:"fecha"`
	Hora       string `json:"hora"`
	Lugar      string `json:"lugar"`
}

// DiaGeneros associa um dia de abertura aos gêneros tocados nele.
type DiaGeneros struct {
	Dia     string   `json:"dia"`
	Generos []string `json:"generos"`
}

// Sala é uma sala de baile com sua agenda semanal.
type Sala struct {
	ID          int64        `json:"id,omitempty"`
	NombreSala  string       `json:"nombreSala"`
	Localidad   string       `json:"localidad"`
	Address     string       `json:"address"`
	DiasGeneros []DiaGeneros `json:"diasGeneros"`
}

// Post é uma publicação do blog de eventos.
type Post struct {
	ID              int64  `json:"id,omitempty"`
	Title           string `json:"title"`
	TextoInfo       string `json:"textoinfo"`
	TextoPrograma1  string `json:"textoprograma1"`
	TextoPrograma2  string `json:"textoprograma2"`
	TextoDressCode  string `json:"textodresscode"`
	TextoArtistas   string `json:"textoartistas"`
	TextoDJs        string `json:"textodjs"`
	TextoPases      string `json:"textopases"`
	CreatedAt       string `json:"created_at,omitempty"`
	FraseClave      string `json:"fraseclave"`
	TituloSEO       string `json:"tituloseo"`
	Slug            string `json:"slug"`
	MetaDescripcion string `json:"metadescripcion"`
	AltPortada      string `json:"altportada"`
	ImagenPortada   string `json:"imagenportada,omitempty"`
}

type postEnvelope struct {
	Data Post `json:"data"`
}

// Image é um arquivo enviado como parte multipart.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message é a resposta textual das operações de escrita.
//
// O backend responde ora com {"message": ...}, ora com {"mensaje": ...}, ora
// com uma string JSON pura; os três formatos são aceitos.
type Message struct {
	Text string
}

func (m *Message) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &m.Text)
	}
	var payload struct {
		Message string `json:"message"`
		Mensaje string `json:"mensaje"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	m.Text = payload.Message
	if m.Text == "" {
		m.Text = payload.Mensaje
	}
	return nil
}

func (m Message) String() string {
	return m.Text
}
