package ws

import (
	"net/http"

	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket. The optional
// ?name= query parameter only labels the connection in logs.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			hub.logger.Warn("accept error", "error", err)
			return
		}

		client := NewClient(hub, conn, r.URL.Query().Get("name"))
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump()
		client.ReadPump(r.Context())
	}
}
