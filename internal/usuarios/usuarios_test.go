package usuarios

import (
	"context"
	"testing"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/session"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

type stubAPI struct {
	calls   []string
	sent    backend.ProfileUpdate
	role    string
	users   []User
	failErr error
}

func (s *stubAPI) UpdateUser(ctx context.Context, userID int64, update backend.ProfileUpdate) (User, error) {
	s.calls = append(s.calls, "update")
	s.sent = update
	return User{ID: userID, Nombre: update.Nombre, Email: update.Email, FechaNacimiento: update.FechaNacimiento}, s.failErr
}

func (s *stubAPI) ListUsers(ctx context.Context) ([]User, error) {
	s.calls = append(s.calls, "list")
	return s.users, s.failErr
}

func (s *stubAPI) EnableUser(ctx context.Context, userID int64) (backend.Message, error) {
	s.calls = append(s.calls, "enable")
	return backend.Message{Text: "Usuario habilitado"}, s.failErr
}

func (s *stubAPI) DisableUser(ctx context.Context, userID int64) (backend.Message, error) {
	s.calls = append(s.calls, "disable")
	return backend.Message{Text: "Usuario deshabilitado"}, s.failErr
}

func (s *stubAPI) ChangeRole(ctx context.Context, userID int64, role string) (backend.Message, error) {
	s.calls = append(s.calls, "role")
	s.role = role
	return backend.Message{Text: "Rol cambiado"}, s.failErr
}

func newTestService(api *stubAPI) (*Service, *state.Channel[session.AuthState]) {
	authCh := state.New("auth", session.AuthState{})
	return NewService(api, state.New("usuarios", Estado{}), authCh), authCh
}

func TestUpdateProfileConvertsDates(t *testing.T) {
	api := &stubAPI{}
	svc, authCh := newTestService(api)
	authCh.Set(session.AuthState{
		Session: session.Session{UserID: 4, Role: session.User},
		User:    &User{ID: 4, Nombre: "Sara"},
	})

	got, err := svc.UpdateProfile(context.Background(), 4, backend.ProfileUpdate{
		Nombre: "Sara María", Apellidos: "López", FechaNacimiento: "12-04-1990",
		Email: "sara@example.com", Telefono: "+34612345678", Bailerol: "FOLLOWER",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if api.sent.FechaNacimiento != "1990-04-12" {
		t.Fatalf("expected ISO date sent, got %q", api.sent.FechaNacimiento)
	}
	if got.FechaNacimiento != "12-04-1990" {
		t.Fatalf("expected display date returned, got %q", got.FechaNacimiento)
	}
	if u := authCh.Value().User; u == nil || u.Nombre != "Sara María" || u.FechaNacimiento != "1990-04-12" {
		t.Fatalf("auth channel not refreshed: %+v", u)
	}
}

func TestUpdateProfileRejectsBadDate(t *testing.T) {
	api := &stubAPI{}
	svc, _ := newTestService(api)

	_, err := svc.UpdateProfile(context.Background(), 4, backend.ProfileUpdate{
		Nombre: "Sara", Apellidos: "López", FechaNacimiento: "1990-04-12",
		Email: "sara@example.com", Telefono: "+34612345678",
	})
	if !util.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", api.calls)
	}
}

func TestAdminActionsUpdateTable(t *testing.T) {
	api := &stubAPI{users: []User{{ID: 1, Role: "USER", Enabled: true}, {ID: 2, Role: "USER", Enabled: true}}}
	svc, _ := newTestService(api)
	ctx := context.Background()

	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Disable(ctx, 2); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := svc.ChangeRole(ctx, 1, "admin"); err != nil {
		t.Fatalf("role: %v", err)
	}
	if api.role != "ADMIN" {
		t.Fatalf("expected normalized role, got %q", api.role)
	}

	got := svc.Channel().Value().Usuarios
	if got[0].Role != "ADMIN" || got[1].Enabled {
		t.Fatalf("unexpected table %+v", got)
	}

	svc.Forget(1)
	if got := svc.Channel().Value().Usuarios; len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected table after forget %+v", got)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	api := &stubAPI{}
	svc, _ := newTestService(api)

	if _, err := svc.ChangeRole(context.Background(), 1, "PROFESOR"); !util.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", api.calls)
	}
}

func TestFailedEnableKeepsTable(t *testing.T) {
	api := &stubAPI{users: []User{{ID: 3}}}
	svc, _ := newTestService(api)
	ctx := context.Background()
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	api.failErr = &backend.APIError{Status: 403, Message: "Acceso denegado"}
	if _, err := svc.Enable(ctx, 3); backend.UserMessage(err) != "Acceso denegado" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if svc.Channel().Value().Usuarios[0].Enabled {
		t.Fatalf("failed enable must not change the table")
	}
}
