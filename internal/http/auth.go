package http

import (
	"net/http"

	"github.com/bailaconsara/portal/internal/backend"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
)

type registerRequest struct {
	backend.Registration
	Prefijo string `json:"prefijo"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	OTP   string `json:"otp"`
	Email string `json:"email"`
}

type passwordRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Login autentica o visitante e devolve o estado de sessão resultante.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var creds backend.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	st, err := ws.Session.Login(r.Context(), creds)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := ws.Session.Register(r.Context(), req.Registration, req.Prefijo)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusCreated, msg)
}

// Logout só limpa o estado local depois que o backend confirma.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	if err := ws.Session.Logout(r.Context()); err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, ws.Session.Channel().Value())
}

func (h *Handler) Perfil(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	st, err := ws.Session.FetchProfile(r.Context())
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := ws.Session.RequestOTP(r.Context(), req.Email)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req otpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := ws.Session.ConfirmOTP(r.Context(), req.OTP, req.Email)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

// ChangePassword grava a nova senha e encerra a sessão local.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := ws.Session.ResetPassword(r.Context(), req.Email, req.Password, req.RepeatPassword)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}
