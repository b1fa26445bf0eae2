package notify

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

// Kind classifica a notificação.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

const (
	DefaultSuccessDuration = 3 * time.Second
	DefaultErrorDuration   = 5 * time.Second
	maxVisible             = 5
)

// Message é uma notificação transitória e dispensável.
type Message struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Kind      Kind          `json:"kind"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Center publica notificações no canal do workspace e as retira ao expirar.
type Center struct {
	channel *state.Channel[[]Message]
	logger  zerolog.Logger

	mu     sync.Mutex
	timers map[string]func() bool

	now   func() time.Time
	after func(time.Duration, func()) func() bool
}

// NewCenter cria o centro sobre o canal informado.
func NewCenter(channel *state.Channel[[]Message]) *Center {
	return &Center{
		channel: channel,
		logger:  log.With().Str("component", "notify").Logger(),
		timers:  make(map[string]func() bool),
		now:     time.Now,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// Channel expõe o canal observado pela interface.
func (c *Center) Channel() *state.Channel[[]Message] {
	return c.channel
}

// Success publica uma confirmação; duration 0 usa o padrão.
func (c *Center) Success(text string, duration time.Duration) Message {
	if duration <= 0 {
		duration = DefaultSuccessDuration
	}
	return c.Notify(Message{Text: text, Kind: KindSuccess, Duration: duration})
}

// Error publica a mensagem derivada de err.
func (c *Center) Error(err error, duration time.Duration) Message {
	if duration <= 0 {
		duration = DefaultErrorDuration
	}
	return c.Notify(Message{Text: Describe(err), Kind: KindError, Duration: duration})
}

// Notify publica msg e agenda sua remoção.
func (c *Center) Notify(msg Message) Message {
	if msg.ID == "" {
		msg.ID = util.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = c.now()
	}

	var dropped []string
	c.channel.Publish(func(current []Message) []Message {
		next := make([]Message, 0, len(current)+1)
		next = append(next, current...)
		next = append(next, msg)
		if len(next) > maxVisible {
			for _, old := range next[:len(next)-maxVisible] {
				dropped = append(dropped, old.ID)
			}
			next = next[len(next)-maxVisible:]
		}
		return next
	})

	c.mu.Lock()
	for _, id := range dropped {
		if stop, ok := c.timers[id]; ok {
			stop()
			delete(c.timers, id)
		}
	}
	if msg.Duration > 0 {
		id := msg.ID
		c.timers[id] = c.after(msg.Duration, func() { c.Dismiss(id) })
	}
	c.mu.Unlock()

	event := c.logger.Debug()
	if msg.Kind == KindError {
		event = c.logger.Info()
	}
	event.Str("kind", string(msg.Kind)).Str("id", msg.ID).Msg("notificação publicada")
	return msg
}

// Dismiss remove a notificação; devolve false se ela já não existia.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	if stop, ok := c.timers[id]; ok {
		stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	found := false
	c.channel.Publish(func(current []Message) []Message {
		next := make([]Message, 0, len(current))
		for _, m := range current {
			if m.ID == id {
				found = true
				continue
			}
			next = append(next, m)
		}
		return next
	})
	return found
}

// Clear remove todas as notificações visíveis.
func (c *Center) Clear() {
	c.mu.Lock()
	for id, stop := range c.timers {
		stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()
	c.channel.Set(nil)
}

// Describe converte qualquer falha no texto exibido ao usuário.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var vErr *util.ValidationError
	if errors.As(err, &vErr) {
		keys := make([]string, 0, len(vErr.Fields))
		for k := range vErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+": "+vErr.Fields[k])
		}
		return strings.Join(lines, "\n")
	}
	return backend.UserMessage(err)
}
