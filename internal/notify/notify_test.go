package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

type fakeTimers struct {
	scheduled map[time.Duration][]func()
	stopped   int
}

func newTestCenter() (*Center, *fakeTimers) {
	timers := &fakeTimers{scheduled: map[time.Duration][]func(){}}
	c := NewCenter(state.New[[]Message]("notificaciones", nil))
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	c.after = func(d time.Duration, f func()) func() bool {
		timers.scheduled[d] = append(timers.scheduled[d], f)
		return func() bool { timers.stopped++; return true }
	}
	return c, timers
}

func TestErrorNotificationUsesBackendMessageAndExpires(t *testing.T) {
	c, timers := newTestCenter()

	msg := c.Error(&backend.APIError{Status: 400, Message: "must not be blank"}, 0)
	if msg.Text != "must not be blank" || msg.Kind != KindError || msg.Duration != DefaultErrorDuration {
		t.Fatalf("unexpected message %+v", msg)
	}
	if got := c.Channel().Value(); len(got) != 1 || got[0].ID != msg.ID {
		t.Fatalf("expected message published, got %+v", got)
	}

	fire := timers.scheduled[DefaultErrorDuration]
	if len(fire) != 1 {
		t.Fatalf("expected one timer, got %d", len(fire))
	}
	fire[0]()
	if got := c.Channel().Value(); len(got) != 0 {
		t.Fatalf("expected message removed after expiry, got %+v", got)
	}
}

func TestDismissRemovesOnlyTargetMessage(t *testing.T) {
	c, timers := newTestCenter()
	first := c.Success("Inscrito", 0)
	second := c.Success("Pareja añadida", time.Second)

	if !c.Dismiss(first.ID) {
		t.Fatalf("expected dismiss to find message")
	}
	if c.Dismiss(first.ID) {
		t.Fatalf("second dismiss must report missing")
	}
	got := c.Channel().Value()
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("unexpected remaining %+v", got)
	}
	if timers.stopped != 1 {
		t.Fatalf("expected timer stopped once, got %d", timers.stopped)
	}
}

func TestOldestNotificationsAreDroppedBeyondLimit(t *testing.T) {
	c, _ := newTestCenter()
	var last Message
	for i := 0; i < maxVisible+2; i++ {
		last = c.Success("ok", 0)
	}
	got := c.Channel().Value()
	if len(got) != maxVisible || got[len(got)-1].ID != last.ID {
		t.Fatalf("unexpected list %+v", got)
	}
}

func TestDescribeValidationError(t *testing.T) {
	err := &util.ValidationError{Fields: map[string]string{"telefono": util.MsgFormat, "email": util.MsgEmail}}
	want := "email: " + util.MsgEmail + "\ntelefono: " + util.MsgFormat
	if got := Describe(err); got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
	if got := Describe(errors.New("x")); got != "x" {
		t.Fatalf("unexpected %q", got)
	}
}
