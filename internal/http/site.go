package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bailaconsara/portal/internal/app"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
	"github.com/bailaconsara/portal/internal/niveles"
)

type consentView struct {
	ShowBanner bool   `json:"showBanner"`
	Preference string `json:"preference"`
}

type consentRequest struct {
	Aceptar bool `json:"aceptar"`
}

type evaluateRequest struct {
	Nivel string   `json:"nivel"`
	Items []string `json:"items"`
}

func (h *Handler) GetConsent(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	h.writeConsent(w, r, ws)
}

// SetConsent grava a escolha do aviso de cookies. Rejeitar apaga o restante
// do armazenamento local, mas mantém a sessão.
func (h *Handler) SetConsent(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req consentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var err error
	if req.Aceptar {
		err = ws.Consent.Accept(r.Context())
	} else {
		err = ws.Consent.Reject(r.Context())
	}
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	h.writeConsent(w, r, ws)
}

func (h *Handler) writeConsent(w http.ResponseWriter, r *http.Request, ws *app.Workspace) {
	pref, err := ws.Consent.Preference(r.Context())
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, consentView{ShowBanner: ws.Consent.Channel().Value(), Preference: pref})
}

func (h *Handler) ListNiveles(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, niveles.Catalog())
}

func (h *Handler) EvaluateNivel(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := niveles.Evaluate(req.Nivel, req.Items)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"nivel": req.Nivel, "resultado": result})
}

func (h *Handler) ListNotificaciones(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	WriteJSON(w, http.StatusOK, ws.Notify.Channel().Value())
}

func (h *Handler) DismissNotificacion(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	if !ws.Notify.Dismiss(chi.URLParam(r, "id")) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Notificación no encontrada", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearNotificaciones(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	ws.Notify.Clear()
	w.WriteHeader(http.StatusNoContent)
}
