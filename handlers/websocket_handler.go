package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Браузерные клиенты подключаются с других origin'ов; доступ
		// ограничивается CORS-настройками HTTP-слоя.
		return true
	},
}

type WebSocketHandler struct {
	hub            *brackets.Hub
	bracketService services.BracketService
	logger         *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, bracketService services.BracketService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, bracketService: bracketService, logger: logger}
}

// ServeBracketWS upgrades the connection and subscribes the client to the
// bracket's room. The socket is push-only: match updates, bracket resets and
// champion events arrive as they happen.
func (h *WebSocketHandler) ServeBracketWS(w http.ResponseWriter, r *http.Request) {
	bracketID, err := strconv.Atoi(chi.URLParam(r, "bracketID"))
	if err != nil || bracketID <= 0 {
		notFoundResponse(w, r)
		return
	}
	if _, err = h.bracketService.GetBracketSnapshot(r.Context(), bracketID, false); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.Int("bracket_id", bracketID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: strconv.Itoa(bracketID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
