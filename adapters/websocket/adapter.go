package websocket

import (
	"net/http"
	"time"

	"rankboard/core"
	"rankboard/realtime"

	gorillaws "github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Handler returns an http.Handler that upgrades to WebSocket and streams
// ranking events from the hub. The optional ?board= query restricts the
// stream to one board.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		board := core.BoardName(r.URL.Query().Get("board"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		id, ch := hub.Subscribe(board, 256)
		defer hub.Unsubscribe(id)

		// reader loop only notices the client going away
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
}
