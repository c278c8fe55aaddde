package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// DefaultChannelID is used when a message arrives without a ChannelID.
const DefaultChannelID = "default"

// WSMessage is the JSON message protocol for the WebSocket gateway.
// Example: {"type": "chat", "content": "hello", "channelId": "general"}
type WSMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	ChannelID string `json:"channelId,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request to WebSocket and runs a read loop, answering
// each "chat" message on the same connection. The channel ID from the incoming
// message is preserved in the response; messages without one share the
// "default" channel. Writes are serialized with a mutex. Only GET is accepted
// for the handshake.
func HandleWS(w http.ResponseWriter, r *http.Request, svc ChatService) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var in WSMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			writeWSMessage(conn, &writeMu, &WSMessage{Type: "error", Content: "invalid JSON"})
			continue
		}
		if in.Type != "chat" || in.Content == "" {
			writeWSMessage(conn, &writeMu, &WSMessage{Type: "error", Content: "expected a chat message", ChannelID: in.ChannelID})
			continue
		}
		channelID := in.ChannelID
		if channelID == "" {
			channelID = DefaultChannelID
		}

		reply, err := svc.Handle(r.Context(), channelID, in.Content)
		if err != nil {
			writeWSMessage(conn, &writeMu, &WSMessage{Type: "error", Content: err.Error(), ChannelID: in.ChannelID})
			continue
		}
		writeWSMessage(conn, &writeMu, &WSMessage{Type: "chat", Content: reply, ChannelID: in.ChannelID})
	}
}

func writeWSMessage(conn *websocket.Conn, mu *sync.Mutex, msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
