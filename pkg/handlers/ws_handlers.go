package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/driftchat/driftchat/pkg/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// HandleWS upgrades the connection and starts the pumps. The connection is
// anonymous until it sends a login event; no presence binding happens here.
func HandleWS(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := hub.NewClient(h, conn, uuid.New().String())

		h.Register <- client

		go client.WritePump()
		go client.ReadPump()

		log.Printf("WebSocket connection established: session=%s", client.SessionID)
	}
}
