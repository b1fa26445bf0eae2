package http

import (
	"net/http"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/backend"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
	"github.com/bailaconsara/portal/internal/session"
	"github.com/bailaconsara/portal/internal/usuarios"
)

type roleRequest struct {
	Role string `json:"role"`
}

// ownerOrAdmin libera a rota ao próprio usuário ou a um administrador.
func ownerOrAdmin(w http.ResponseWriter, ws *app.Workspace, userID int64) bool {
	current := ws.Session.Current()
	if current.UserID == userID || current.Can(session.Admin) {
		return true
	}
	WriteError(w, http.StatusForbidden, "FORBIDDEN", "Acceso restringido", nil)
	return false
}

func (h *Handler) UpdateUsuario(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok || !ownerOrAdmin(w, ws, id) {
		return
	}
	var update backend.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	user, err := ws.Usuarios.UpdateProfile(r.Context(), id, update)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	ws.Notify.Success(usuarios.MsgUpdated, 0)
	WriteJSON(w, http.StatusOK, user)
}

// DeleteUsuario apaga a conta e encerra a sessão em todos os workspaces que a
// usavam. O workspace que fez o pedido já é tratado por DeleteAccount.
func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok || !ownerOrAdmin(w, ws, id) {
		return
	}
	msg, err := ws.Session.DeleteAccount(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	h.registry.RevokeUser(r.Context(), id, ws.ID)
	ws.Usuarios.Forget(id)
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	list, err := ws.Usuarios.List(r.Context())
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) EnableUsuario(w http.ResponseWriter, r *http.Request) {
	h.adminUserAction(w, r, func(ws *app.Workspace, id int64) (backend.Message, error) {
		return ws.Usuarios.Enable(r.Context(), id)
	})
}

func (h *Handler) DisableUsuario(w http.ResponseWriter, r *http.Request) {
	h.adminUserAction(w, r, func(ws *app.Workspace, id int64) (backend.Message, error) {
		return ws.Usuarios.Disable(r.Context(), id)
	})
}

func (h *Handler) ChangeRol(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.adminUserAction(w, r, func(ws *app.Workspace, id int64) (backend.Message, error) {
		return ws.Usuarios.ChangeRole(r.Context(), id, req.Role)
	})
}

func (h *Handler) adminUserAction(w http.ResponseWriter, r *http.Request, action func(*app.Workspace, int64) (backend.Message, error)) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := action(ws, id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}
