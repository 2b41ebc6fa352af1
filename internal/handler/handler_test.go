package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"receipt-encoder/internal/config"
	"receipt-encoder/internal/middleware"
	"receipt-encoder/internal/receipt"
	"receipt-encoder/internal/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     *utils.APIError `json:"error"`
	RequestID string          `json:"request_id"`
}

type testServer struct {
	engine    *gin.Engine
	receipts  *ReceiptHandler
	websocket *WebSocketHandler
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	// WebSocket goroutines may log after the test returns
	logger := zap.NewNop()
	service, err := receipt.NewService(cfg, logger)
	require.NoError(t, err)

	receipts := NewReceiptHandler(service, cfg, logger)
	ws := NewWebSocketHandler(receipts, &cfg.Security, logger)
	health := NewHealthHandler(service, cfg, ws.GetConnectionStats, logger)

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	engine.POST("/encode", receipts.Encode)
	engine.GET("/profiles", ListProfiles)
	engine.GET("/codepages", ListCodepages)
	engine.GET("/symbologies", ListSymbologies)
	engine.GET("/capabilities", ListCapabilities)
	engine.GET("/health", health.HealthCheck)
	engine.GET("/ready", health.ReadinessCheck)
	engine.GET("/live", health.LivenessCheck)
	engine.GET("/ws", ws.HandleReceiptConnection)

	return &testServer{engine: engine, receipts: receipts, websocket: ws}
}

func (s *testServer) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var helloBytes = []byte{0x1B, 0x40, 'H', 'i', 0x0A, 0x0D}

const helloDocument = `{"commands":[{"op":"line","text":"Hi"}]}`

func TestEncodeJSON(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(t, http.MethodPost, "/encode", helloDocument, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)

	var res EncodeResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, helloBytes, res.Payload)
	assert.Equal(t, len(helloBytes), res.Size)
	assert.Equal(t, receipt.RendererESCPOS, res.Renderer)
	assert.Equal(t, res.JobID, w.Header().Get(middleware.JobIDHeader))
}

func TestEncodeOctetStream(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	for _, accept := range []string{mimeOctetStream, "application/vnd.escpos"} {
		t.Run(accept, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/encode", helloDocument, http.Header{"Accept": {accept}})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, mimeOctetStream, w.Header().Get("Content-Type"))
			assert.Equal(t, helloBytes, w.Body.Bytes())
			assert.NotEmpty(t, w.Header().Get(middleware.JobIDHeader))
		})
	}
}

func TestEncodeRejectsDocuments(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	t.Run("malformed json", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/encode", `{"commands":`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BAD_REQUEST", decodeEnvelope(t, w).Error.Code)
	})

	t.Run("failing command", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/encode", `{"commands":[{"op":"line"},{"op":"blink"}]}`, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)

		env := decodeEnvelope(t, w)
		assert.Equal(t, "INVALID_COMMAND", env.Error.Code)
		require.NotNil(t, env.Error.Command)
		assert.Equal(t, 1, *env.Error.Command)
		assert.Contains(t, env.Error.Details, "unknown command")
	})

	t.Run("unknown renderer", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/encode", `{"renderer":"pdf","commands":[]}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeEnvelope(t, w).Error.Details, "unknown renderer")
	})
}

func TestEncodeDocumentTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.MaxDocumentBytes = 32
	s := newTestServer(t, cfg)

	body := `{"commands":[{"op":"line","text":"` + strings.Repeat("a", 64) + `"}]}`
	w := s.do(t, http.MethodPost, "/encode", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "DOCUMENT_TOO_LARGE", decodeEnvelope(t, w).Error.Code)
}

func TestRespondErrorStatus(t *testing.T) {
	h := NewReceiptHandler(nil, testConfig(t), zaptest.NewLogger(t))

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout},
		{"client", receipt.ErrInvalidDocument, http.StatusBadRequest},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.respondError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(t, http.MethodGet, "/profiles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profiles struct {
		Profiles []struct {
			Name     string `json:"name"`
			DotWidth int    `json:"dot_width"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	require.Len(t, profiles.Profiles, 2)
	assert.Equal(t, "58mm", profiles.Profiles[0].Name)
	assert.Equal(t, 568, profiles.Profiles[1].DotWidth)

	w = s.do(t, http.MethodGet, "/symbologies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var symbologies struct {
		Symbologies []SymbologyInfo `json:"symbologies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &symbologies))
	assert.Contains(t, symbologies.Symbologies, SymbologyInfo{Name: "ean13", Code: 0x02, MinLength: 12, MaxLength: 13})

	w = s.do(t, http.MethodGet, "/codepages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"cp437"`)
	assert.Contains(t, w.Body.String(), `{"name":"cp737","id":64,"wide":false,"mapped":false}`)

	w = s.do(t, http.MethodGet, "/capabilities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var caps map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &caps))
	assert.Equal(t, []string{"escpos", "canvas"}, caps["renderers"])
	assert.Contains(t, caps["dithering"], "floyd-steinberg")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "receipt-encoder", health.Service)
	for _, check := range []string{"escpos", "canvas", "websocket"} {
		assert.Equal(t, "healthy", health.Checks[check].Status, check)
	}

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/live", "", nil).Code)
}

func TestWebSocketRoundTrip(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(helloDocument)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, helloBytes, data)

	readError := func() WebSocketMessage {
		t.Helper()
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, kind)
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"commands":[{"op":"blink"}]}`)))
	msg := readError()
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Data, "error")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, "error", readError().Type)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, helloBytes))
	assert.Equal(t, "error", readError().Type)

	// replies keep the order of the documents
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(helloDocument)))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(helloBytes, data))

	assert.Equal(t, 1, s.websocket.GetConnectionStats().TotalConnections)
}

func TestWebSocketSurvivesEncoderPanic(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	encode := s.websocket.encodeDoc
	s.websocket.encodeDoc = func(ctx context.Context, doc *receipt.Document) (*receipt.Result, error) {
		if doc.Profile == "boom" {
			panic("dither palette out of range")
		}
		return encode(ctx, doc)
	}
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"profile":"boom"}`)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)
	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, string(data), "internal error while encoding document")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(helloDocument)))
	kind, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, helloBytes, data)
}
