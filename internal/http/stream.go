package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
	streamBuffer     = 64
)

// StreamFrame é uma mensagem do /ws/estado: o canal e seu valor atual.
type StreamFrame struct {
	Canal string `json:"canal"`
	Valor any    `json:"valor"`
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins.Allowed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Stream envia o valor corrente de cada canal do workspace e, em seguida,
// cada nova publicação. O cliente só precisa responder aos pings.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("visitor", ws.ID).Msg("upgrade recusado")
		return
	}
	logger := log.With().Str("component", "stream").Str("visitor", ws.ID).Logger()

	send := make(chan []byte, streamBuffer)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	streams := ws.Streams()
	unsubscribe := make([]func(), 0, len(streams))
	for _, s := range streams {
		name := s.Name
		unsubscribe = append(unsubscribe, s.Subscribe(func(v any) {
			payload, err := json.Marshal(StreamFrame{Canal: name, Valor: v})
			if err != nil {
				logger.Warn().Err(err).Str("canal", name).Msg("valor não serializável")
				return
			}
			select {
			case send <- payload:
			case <-done:
			default:
				// fila cheia: o cliente não acompanha, encerra
				logger.Warn().Str("canal", name).Msg("observador lento, conexão encerrada")
				stop()
			}
		}))
	}
	defer func() {
		for _, u := range unsubscribe {
			u()
		}
	}()

	logger.Debug().Msg("stream aberto")
	go readStream(conn, stop)
	writeStream(conn, send, done, logger)
	logger.Debug().Msg("stream encerrado")
}

func readStream(conn *websocket.Conn, stop func()) {
	defer stop()
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeStream(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug().Err(err).Msg("falha ao escrever no stream")
				}
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
