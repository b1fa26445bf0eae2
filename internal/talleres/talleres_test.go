package talleres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

type stubAPI struct {
	mu         sync.Mutex
	calls      []string
	signedUp   bool
	hasPartner bool
	failWith   error
	talleres   []Taller
}

func (s *stubAPI) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *stubAPI) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubAPI) SignIn(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
	s.record("signIn")
	if s.failWith != nil {
		return backend.Message{}, s.failWith
	}
	return backend.Message{Text: "Te has inscrito"}, nil
}

func (s *stubAPI) SignInCouple(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error) {
	s.record("signInCouple")
	if s.failWith != nil {
		return backend.Message{}, s.failWith
	}
	return backend.Message{Text: "Pareja inscrita"}, nil
}

func (s *stubAPI) AddPartner(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error) {
	s.record("addPartner")
	if s.failWith != nil {
		return backend.Message{}, s.failWith
	}
	return backend.Message{Text: "Pareja añadida"}, nil
}

func (s *stubAPI) SignOut(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
	s.record("signOut")
	if s.failWith != nil {
		return backend.Message{}, s.failWith
	}
	return backend.Message{Text: "Asistencia anulada"}, nil
}

func (s *stubAPI) IsSignedUp(ctx context.Context, tallerID, userID int64) (bool, error) {
	s.record("isSignedUp")
	return s.signedUp, nil
}

func (s *stubAPI) HasPartner(ctx context.Context, tallerID, userID int64) (bool, error) {
	s.record("hasPartner")
	return s.hasPartner, nil
}

func (s *stubAPI) ListTalleres(ctx context.Context) ([]Taller, error) {
	s.record("list")
	return s.talleres, nil
}

func (s *stubAPI) GetTaller(ctx context.Context, id int64) (Taller, error) {
	s.record("get")
	for _, t := range s.talleres {
		if t.ID == id {
			return t, nil
		}
	}
	return Taller{}, &backend.APIError{Status: 404, Message: "Taller no encontrado"}
}

func (s *stubAPI) CreateTaller(ctx context.Context, taller Taller) (backend.Message, error) {
	s.record("create")
	taller.ID = int64(len(s.talleres) + 1)
	s.talleres = append(s.talleres, taller)
	return backend.Message{Text: "Taller creado"}, nil
}

func (s *stubAPI) UpdateTaller(ctx context.Context, id int64, taller Taller) (backend.Message, error) {
	s.record("update")
	return backend.Message{Text: "Taller actualizado"}, nil
}

func (s *stubAPI) DeleteTaller(ctx context.Context, id int64) (backend.Message, error) {
	s.record("delete")
	return backend.Message{Text: "Taller eliminado"}, nil
}

func (s *stubAPI) ListTallerUsers(ctx context.Context, tallerID int64) ([]backend.UserProfile, error) {
	s.record("users")
	return []backend.UserProfile{{ID: 42}}, nil
}

func newTestCoordinator(api *stubAPI) (*Coordinator, *state.Channel[Estado]) {
	ch := state.New("talleres", Estado{})
	return NewCoordinator(api, ch), ch
}

func TestSignUpAsCoupleSetsBothFlagsWithoutQuery(t *testing.T) {
	api := &stubAPI{}
	c, ch := newTestCoordinator(api)

	if f := ch.Value().FlagsFor(5); f.SignedUp || f.HasPartner {
		t.Fatalf("expected false flags, got %+v", f)
	}

	msg, err := c.SignUpAsCouple(context.Background(), 5, 42, "a@b.com")
	if err != nil {
		t.Fatalf("sign up as couple: %v", err)
	}
	if msg.Text != "Pareja inscrita" {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	if f := ch.Value().FlagsFor(5); !f.SignedUp || !f.HasPartner {
		t.Fatalf("expected both flags true, got %+v", f)
	}
	if api.count() != 1 {
		t.Fatalf("expected exactly one request, got %v", api.calls)
	}
}

func TestCancelRequiresConfirmation(t *testing.T) {
	api := &stubAPI{}
	c, ch := newTestCoordinator(api)
	ctx := context.Background()
	if _, err := c.SignUpAsCouple(ctx, 5, 42, "a@b.com"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	before := api.count()

	confirmers := []Confirmer{
		nil,
		ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil }),
		ConfirmFunc(func(context.Context, string) (bool, error) { return false, errors.New("diálogo cerrado") }),
	}
	for i, confirmer := range confirmers {
		if _, err := c.CancelSignUp(ctx, 5, 42, confirmer); !errors.Is(err, ErrNotConfirmed) {
			t.Fatalf("case %d: expected ErrNotConfirmed, got %v", i, err)
		}
	}
	if api.count() != before {
		t.Fatalf("expected zero requests without confirmation, got %v", api.calls[before:])
	}
	if f := ch.Value().FlagsFor(5); !f.SignedUp || !f.HasPartner {
		t.Fatalf("flags must be unchanged, got %+v", f)
	}

	var prompt string
	_, err := c.CancelSignUp(ctx, 5, 42, ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	}))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if prompt != CancelPrompt {
		t.Fatalf("unexpected prompt %q", prompt)
	}
	if f := ch.Value().FlagsFor(5); f.SignedUp || f.HasPartner {
		t.Fatalf("expected both flags false, got %+v", f)
	}
}

func TestSignUpKeepsSignedUpAndRequeriesBothFlags(t *testing.T) {
	api := &stubAPI{signedUp: false, hasPartner: true}
	c, ch := newTestCoordinator(api)

	var seen []Flags
	ch.Subscribe(func(e Estado) { seen = append(seen, e.FlagsFor(3)) })

	if _, err := c.SignUp(context.Background(), 3, 42); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	f := ch.Value().FlagsFor(3)
	if !f.SignedUp || !f.HasPartner {
		t.Fatalf("expected signed up with server partner flag, got %+v", f)
	}

	queried := map[string]bool{}
	for _, call := range api.calls {
		queried[call] = true
	}
	if !queried["isSignedUp"] || !queried["hasPartner"] {
		t.Fatalf("expected both flags re-queried, got %v", api.calls)
	}
	for _, s := range seen {
		if s.HasPartner && !s.SignedUp {
			t.Fatalf("observed partner without enrollment: %+v", seen)
		}
	}
}

func TestFailedOperationLeavesFlagsUntouched(t *testing.T) {
	api := &stubAPI{failWith: &backend.APIError{Status: 400, Message: "El usuario no existe"}}
	c, ch := newTestCoordinator(api)
	ctx := context.Background()

	if _, err := c.AddPartner(ctx, 5, 42, "nadie@b.com"); backend.UserMessage(err) != "El usuario no existe" {
		t.Fatalf("expected server message, got %v", err)
	}
	if _, err := c.SignUp(ctx, 5, 42); err == nil {
		t.Fatalf("expected sign up failure")
	}
	if f := ch.Value().FlagsFor(5); f.SignedUp || f.HasPartner {
		t.Fatalf("flags must not change on failure, got %+v", f)
	}
	if api.count() != 2 {
		t.Fatalf("failures must not retry or re-query, got %v", api.calls)
	}
}

func TestAddPartnerImpliesEnrollment(t *testing.T) {
	api := &stubAPI{}
	c, ch := newTestCoordinator(api)

	if _, err := c.AddPartner(context.Background(), 8, 42, "pareja@b.com"); err != nil {
		t.Fatalf("add partner: %v", err)
	}
	if f := ch.Value().FlagsFor(8); !f.HasPartner || !f.SignedUp {
		t.Fatalf("expected partner and enrollment, got %+v", f)
	}
}

func TestListRefreshesFlagsForEveryTaller(t *testing.T) {
	api := &stubAPI{signedUp: true, talleres: []Taller{{ID: 1, Nombre: "Salsa"}, {ID: 2, Nombre: "Bachata"}}}
	ch := state.New("talleres", Estado{})
	svc := NewService(api, ch, NewCoordinator(api, ch))

	list, err := svc.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || len(ch.Value().Talleres) != 2 {
		t.Fatalf("unexpected list %+v", ch.Value())
	}
	for _, id := range []int64{1, 2} {
		if !ch.Value().FlagsFor(id).SignedUp {
			t.Fatalf("expected flags for taller %d", id)
		}
	}

	c := NewCoordinator(api, ch)
	c.ResetFlags(context.Background())
	if len(ch.Value().Flags) != 0 || len(ch.Value().Talleres) != 2 {
		t.Fatalf("reset must drop only flags, got %+v", ch.Value())
	}
}

func TestServiceValidationNeverReachesNetwork(t *testing.T) {
	api := &stubAPI{}
	ch := state.New("talleres", Estado{})
	svc := NewService(api, ch, nil)

	_, err := svc.Create(context.Background(), Taller{Nombre: "Salsa", Modalidad: "Pareja", Profesores: "Sara", Fecha: "2024-02-30", Hora: "25:00", Lugar: "Sala 1"})
	var vErr *util.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Fields["fecha"] != util.MsgFormat || vErr.Fields["hora"] != util.MsgFormat {
		t.Fatalf("unexpected fields %+v", vErr.Fields)
	}
	if api.count() != 0 {
		t.Fatalf("expected no requests, got %v", api.calls)
	}
}

func TestServiceUpdateAndDeletePublish(t *testing.T) {
	api := &stubAPI{talleres: []Taller{{ID: 1, Nombre: "Salsa"}, {ID: 2, Nombre: "Bachata"}}}
	ch := state.New("talleres", Estado{})
	svc := NewService(api, ch, nil)
	ctx := context.Background()
	if _, err := svc.List(ctx, 0); err != nil {
		t.Fatalf("list: %v", err)
	}

	updated := Taller{Nombre: "Salsa avanzada", Modalidad: "Pareja", Profesores: "Sara", Fecha: "2024-06-01", Hora: "19:30", Lugar: "Sala 1"}
	if _, err := svc.Update(ctx, 1, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := ch.Value().Talleres[0]; got.ID != 1 || got.Nombre != "Salsa avanzada" {
		t.Fatalf("unexpected updated taller %+v", got)
	}

	if _, err := svc.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := ch.Value().Talleres; len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected list after delete %+v", got)
	}
}

func TestDisplayDateRoundTrip(t *testing.T) {
	start := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		iso := d.Format("2006-01-02")
		display, err := ToDisplay(iso)
		if err != nil {
			t.Fatalf("%s: %v", iso, err)
		}
		back, err := FromDisplay(display)
		if err != nil || back != iso {
			t.Fatalf("%s -> %s -> %s (%v)", iso, display, back, err)
		}
	}

	if got, _ := ToDisplay("2024-02-29"); got != "29-02-2024" {
		t.Fatalf("unexpected display %q", got)
	}
	if _, err := ToDisplay("2023-02-29"); !errors.Is(err, ErrFechaInvalida) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := FromDisplay("2024-01-05"); !errors.Is(err, ErrFechaInvalida) {
		t.Fatalf("expected invalid display date, got %v", err)
	}
}
