package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/niveles"
	"github.com/bailaconsara/portal/internal/notify"
	"github.com/bailaconsara/portal/internal/session"
	"github.com/bailaconsara/portal/internal/talleres"
	"github.com/bailaconsara/portal/internal/util"
)

const maxJSONBody = 1 << 20

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas. Details leva os erros por campo.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// MessageBody é o dado devolvido pelas operações de escrita.
type MessageBody struct {
	Message string `json:"message"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data})
}

// WriteError escreve envelope de erro.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeMessage publica o texto de sucesso como notificação e o devolve.
func writeMessage(w http.ResponseWriter, ws *app.Workspace, status int, msg backend.Message) {
	if msg.Text != "" {
		ws.Notify.Success(msg.Text, 0)
	}
	WriteJSON(w, status, MessageBody{Message: msg.Text})
}

// writeFailure traduz err para status e código. Falhas de validação e a
// anulação recusada não geram notificação; as demais sim.
func writeFailure(w http.ResponseWriter, ws *app.Workspace, err error) {
	status, code := classify(err)

	var details any
	var vErr *util.ValidationError
	switch {
	case errors.As(err, &vErr):
		details = vErr.Fields
	case errors.Is(err, talleres.ErrNotConfirmed):
	case ws != nil:
		ws.Notify.Error(err, 0)
	}

	message := notify.Describe(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("falha inesperada")
		message = backend.DefaultMessage
	}
	WriteError(w, status, code, message, details)
}

func classify(err error) (int, string) {
	var vErr *util.ValidationError
	var apiErr *backend.APIError
	var decodeErr *backend.DecodeError
	switch {
	case errors.As(err, &vErr), errors.Is(err, talleres.ErrFechaInvalida):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, talleres.ErrNotConfirmed):
		return http.StatusConflict, "NOT_CONFIRMED"
	case errors.Is(err, session.ErrAccountLocked):
		return http.StatusForbidden, "LOCKED"
	case errors.Is(err, session.ErrUnknownRole):
		return http.StatusForbidden, "ROLE"
	case errors.Is(err, niveles.ErrNivelDesconocido):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Status == 0:
			return http.StatusBadGateway, "BACKEND_UNAVAILABLE"
		case apiErr.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, "AUTH"
		case apiErr.Status == http.StatusForbidden:
			return http.StatusForbidden, "FORBIDDEN"
		case apiErr.Status == http.StatusNotFound:
			return http.StatusNotFound, "NOT_FOUND"
		case apiErr.Status == http.StatusConflict:
			return http.StatusConflict, "CONFLICT"
		case apiErr.Status < 500:
			return apiErr.Status, "BACKEND"
		default:
			return http.StatusBadGateway, "BACKEND"
		}
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway, "BACKEND"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Identificador no válido", nil)
		return 0, false
	}
	return id, true
}
