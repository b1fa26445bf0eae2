package util

import (
	"errors"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mensagens exibidas junto ao campo inválido.
const (
	MsgRequired = "Este campo es obligatorio"
	MsgFormat   = "Formato incorrecto"
	MsgTooShort = "Demasiado corto"
	MsgEmail    = "introduzca un email válido"
)

var (
	nombrePattern   = regexp.MustCompile(`^[a-zA-ZÀ-ÿñÑ]+( [a-zA-ZÀ-ÿñÑ]+)*$`)
	telefonoPattern = regexp.MustCompile(`^[0-9]{6,15}$`)
	prefijoPattern  = regexp.MustCompile(`^\+[0-9]{1,4}$`)
	horaPattern     = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

const passwordSpecials = "!¡*@$%^&+=._-"

// ValidationError agrupa falhas por campo; nunca chega à camada de rede.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validação: " + strings.Join(parts, "; ")
}

// IsValidation informa se err é um ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Validator acumula a primeira falha de cada campo.
type Validator struct {
	fields map[string]string
}

func NewValidator() *Validator {
	return &Validator{fields: make(map[string]string)}
}

// Add registra msg para field se o campo ainda não tem falha.
func (v *Validator) Add(field, msg string) {
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

// Require marca o campo como obrigatório; devolve false quando vazio.
func (v *Validator) Require(field, value string) bool {
	if err := RequireString(value, field); err != nil {
		v.Add(field, MsgRequired)
		return false
	}
	return true
}

// Check registra msg quando ok é falso.
func (v *Validator) Check(ok bool, field, msg string) {
	if !ok {
		v.Add(field, msg)
	}
}

// Err devolve *ValidationError se houve falhas.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(v.fields))
	for k, msg := range v.fields {
		out[k] = msg
	}
	return &ValidationError{Fields: out}
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New(MsgRequired)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New(MsgEmail)
	}
	return nil
}

// ValidatePassword exige 8+ caracteres sem espaços, com dígito, minúscula,
// maiúscula e um dos especiais !¡*@$%^&+=._-
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New(MsgRequired)
	}
	if utf8.RuneCountInString(password) < 8 {
		return errors.New(MsgFormat)
	}
	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return errors.New(MsgFormat)
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !digit || !lower || !upper || !special {
		return errors.New(MsgFormat)
	}
	return nil
}

// ValidateNombre aceita letras (incluindo acentuadas e ñ) separadas por espaço simples.
func ValidateNombre(nombre string) error {
	if strings.TrimSpace(nombre) == "" {
		return errors.New(MsgRequired)
	}
	if utf8.RuneCountInString(nombre) < 2 {
		return errors.New(MsgTooShort)
	}
	if !nombrePattern.MatchString(nombre) {
		return errors.New(MsgFormat)
	}
	return nil
}

// ValidateTelefono aceita de 6 a 15 dígitos, sem prefixo.
func ValidateTelefono(telefono string) error {
	if telefono == "" {
		return errors.New(MsgRequired)
	}
	if !telefonoPattern.MatchString(telefono) {
		return errors.New(MsgFormat)
	}
	return nil
}

// ValidatePrefijo aceita prefixos internacionais como +34.
func ValidatePrefijo(prefijo string) error {
	if !prefijoPattern.MatchString(prefijo) {
		return errors.New(MsgFormat)
	}
	return nil
}

// ValidateHora aceita HH:MM no relógio de 24h.
func ValidateHora(hora string) error {
	if hora == "" {
		return errors.New(MsgRequired)
	}
	if !horaPattern.MatchString(hora) {
		return errors.New(MsgFormat)
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}

// FieldError converte o erro de uma função Validate* em entrada do Validator.
func (v *Validator) FieldError(field string, err error) {
	if err != nil {
		v.Add(field, err.Error())
	}
}
