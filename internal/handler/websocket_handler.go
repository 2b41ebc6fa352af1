// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/receipt"
	"receipt-encoder/internal/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler streams documents over one connection. Every text frame
// is a document; the reply is a binary frame with the printer bytes or a
// JSON text frame describing the error.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	receipts    *ReceiptHandler
	encodeDoc   func(context.Context, *receipt.Document) (*receipt.Result, error)
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(receipts *ReceiptHandler, security *config.SecurityConfig, logger *zap.Logger) *WebSocketHandler {
	origins := security.AllowedOrigins
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(origins) == 0 ||
				slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		receipts:    receipts,
		encodeDoc:   receipts.service.Encode,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// HandleReceiptConnection upgrades the request and serves documents until
// the client goes away
func (h *WebSocketHandler) HandleReceiptConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	if limit := h.receipts.config.Security.MaxDocumentBytes; limit > 0 {
		conn.SetReadLimit(limit)
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan Frame, 16),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}

	h.connections.Register(client)
	h.logger.Info("Receipt WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// handleClientRead encodes documents in arrival order
func (h *WebSocketHandler) handleClientRead(client *Client) {
	documents := 0
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("Receipt WebSocket client disconnected",
			zap.String("client_id", client.ID),
			zap.Int("documents", documents),
		)
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		return client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))

		if messageType != websocket.TextMessage {
			h.sendError(client, "documents must be sent as text frames")
			continue
		}

		var doc receipt.Document
		if err := json.Unmarshal(messageBytes, &doc); err != nil {
			h.sendError(client, "invalid document: "+err.Error())
			continue
		}

		documents++
		h.encode(client, &doc)
	}
}

func (h *WebSocketHandler) encode(client *Client, doc *receipt.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), h.receipts.encodeTimeout())
	defer cancel()
	// a panic fails this document only; the connection keeps serving
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic while encoding WebSocket document",
				zap.Any("panic", r),
				zap.String("client_id", client.ID),
				zap.Stack("stack"),
			)
			h.sendError(client, "internal error while encoding document")
		}
	}()

	result, err := h.encodeDoc(ctx, doc)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	h.send(client, Frame{Type: websocket.BinaryMessage, Data: result.Bytes})
}

// handleClientWrite owns all writes to the connection
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(client.done)
		client.Connection.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(frame.Type, frame.Data); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send waits for the writer so replies keep their order; it gives up once
// the writer has stopped
func (h *WebSocketHandler) send(client *Client, frame Frame) {
	select {
	case client.Send <- frame:
	case <-client.done:
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}
	h.send(client, Frame{Type: websocket.TextMessage, Data: messageBytes})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
