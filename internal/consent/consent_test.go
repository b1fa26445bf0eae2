package consent

import (
	"context"
	"testing"

	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return NewService(store, state.New("consent", true)), store
}

func TestBannerShownUntilAccepted(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !svc.Channel().Value() {
		t.Fatalf("banner must be shown without a preference")
	}

	if err := svc.Accept(ctx); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if svc.Channel().Value() {
		t.Fatalf("banner must hide after accepting")
	}
	if v, _ := store.Get(ctx, storage.KeyCookieConsent); v != Accepted {
		t.Fatalf("unexpected stored preference %q", v)
	}

	other := NewService(store, state.New("consent", true))
	if err := other.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if other.Channel().Value() {
		t.Fatalf("stored acceptance must hide the banner on load")
	}
}

func TestRejectKeepsBannerAndCredential(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_ = store.Set(ctx, storage.KeyToken, "tok")
	_ = store.Set(ctx, "preferencias", "oscuro")

	if err := svc.Reject(ctx); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !svc.Channel().Value() {
		t.Fatalf("banner must stay visible after rejecting")
	}
	if v, _ := store.Get(ctx, storage.KeyCookieConsent); v != Rejected {
		t.Fatalf("unexpected stored preference %q", v)
	}
	if v, _ := store.Get(ctx, storage.KeyToken); v != "tok" {
		t.Fatalf("credential must survive rejection, got %q", v)
	}
	if _, err := store.Get(ctx, "preferencias"); err == nil {
		t.Fatalf("non essential keys must be cleared")
	}
}

func TestReloadAfterClearShowsBanner(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if err := svc.Accept(ctx); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_ = store.Clear(ctx)
	svc.Reload(ctx)
	if !svc.Channel().Value() {
		t.Fatalf("cleared storage must show the banner again")
	}
}
