package http

import (
	"context"
	"net/http"

	"github.com/bailaconsara/portal/internal/backend"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
	"github.com/bailaconsara/portal/internal/talleres"
)

type tallerView struct {
	Taller talleres.Taller `json:"taller"`
	talleres.Flags
}

type partnerRequest struct {
	Email string `json:"email"`
}

type cancelRequest struct {
	Confirmar bool `json:"confirmar"`
}

// ListTalleres devolve as oficinas junto com as projeções do usuário.
func (h *Handler) ListTalleres(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	if _, err := ws.Talleres.List(r.Context(), ws.Session.Current().UserID); err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, ws.Talleres.Channel().Value())
}

func (h *Handler) GetTaller(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	taller, err := ws.Talleres.Get(r.Context(), id, ws.Session.Current().UserID)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, tallerView{Taller: taller, Flags: ws.Talleres.Channel().Value().FlagsFor(id)})
}

func (h *Handler) RefreshTaller(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	flags, err := ws.Coordinator.Refresh(r.Context(), id, ws.Session.Current().UserID)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, flags)
}

func (h *Handler) SignUpTaller(w http.ResponseWriter, r *http.Request) {
	h.enrollmentAction(w, r, func(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
		ws := httpmiddleware.GetWorkspace(ctx)
		return ws.Coordinator.SignUp(ctx, tallerID, userID)
	})
}

func (h *Handler) SignUpTallerPareja(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.enrollmentAction(w, r, func(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
		ws := httpmiddleware.GetWorkspace(ctx)
		return ws.Coordinator.SignUpAsCouple(ctx, tallerID, userID, req.Email)
	})
}

func (h *Handler) AddPartnerTaller(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.enrollmentAction(w, r, func(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
		ws := httpmiddleware.GetWorkspace(ctx)
		return ws.Coordinator.AddPartner(ctx, tallerID, userID, req.Email)
	})
}

// CancelTaller anula a inscrição. O corpo carrega a resposta do usuário à
// pergunta de confirmação; sem confirmar=true nada é enviado ao backend.
func (h *Handler) CancelTaller(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	confirm := talleres.ConfirmFunc(func(context.Context, string) (bool, error) {
		return req.Confirmar, nil
	})
	h.enrollmentAction(w, r, func(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
		ws := httpmiddleware.GetWorkspace(ctx)
		return ws.Coordinator.CancelSignUp(ctx, tallerID, userID, confirm)
	})
}

func (h *Handler) enrollmentAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, tallerID, userID int64) (backend.Message, error)) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := action(r.Context(), id, ws.Session.Current().UserID)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	if msg.Text != "" {
		ws.Notify.Success(msg.Text, 0)
	}
	WriteJSON(w, http.StatusOK, struct {
		MessageBody
		talleres.Flags
	}{MessageBody{Message: msg.Text}, ws.Talleres.Channel().Value().FlagsFor(id)})
}

func (h *Handler) CreateTaller(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var taller talleres.Taller
	if !decodeJSON(w, r, &taller) {
		return
	}
	msg, err := ws.Talleres.Create(r.Context(), taller)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusCreated, msg)
}

func (h *Handler) UpdateTaller(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var taller talleres.Taller
	if !decodeJSON(w, r, &taller) {
		return
	}
	msg, err := ws.Talleres.Update(r.Context(), id, taller)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) DeleteTaller(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := ws.Talleres.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) ListTallerUsuarios(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := ws.Talleres.ListUsers(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}
