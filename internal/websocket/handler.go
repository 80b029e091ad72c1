package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/shoplist/internal/auth"
)

// HandleWebSocket upgrades the request and runs it as a Hub client until the
// connection closes.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // devices on the LAN connect from arbitrary origins
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, auth.DeviceID(r.Context()))
		client.Run(r.Context())
	}
}
