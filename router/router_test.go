package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-orders/config"
	"github.com/yeremiapane/restaurant-orders/invoice"
	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/middlewares"
	"github.com/yeremiapane/restaurant-orders/router"
	"github.com/yeremiapane/restaurant-orders/services"
	"github.com/yeremiapane/restaurant-orders/utils"
)

type stack struct {
	server *httptest.Server
	hub    *kds.Hub
	relay  *services.EventRelay
}

func setup(t *testing.T, limiter *middlewares.RateLimiter) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("router-secret")

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.AutoMigrate(db))

	hub := kds.NewHub()
	relay := services.NewEventRelay(db, hub)
	r := router.SetupRouter(router.Dependencies{
		Orders:      services.NewOrderService(db, relay, nil),
		Hub:         hub,
		Renderer:    invoice.NewRenderer(invoice.Header{Name: "Test Kitchen"}),
		RateLimiter: limiter,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		sqlDB.Close()
	})
	return &stack{server: srv, hub: hub, relay: relay}
}

func token(t *testing.T, tenant, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(tenant, 1, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *stack) dial(t *testing.T, tok string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + tok
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *stack) post(t *testing.T, path, tok string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type wireMessage struct {
	ID    uint            `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPing(t *testing.T) {
	s := setup(t, nil)
	resp, err := http.Get(s.server.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := setup(t, nil)
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestKitchenReceivesTicketsForItsTenantOnly(t *testing.T) {
	s := setup(t, nil)
	kitchen := s.dial(t, token(t, "tenant-a", "chef"))
	other := s.dial(t, token(t, "tenant-b", "chef"))
	require.Eventually(t, func() bool {
		return s.hub.RoomSize("tenant-a") == 1 && s.hub.RoomSize("tenant-b") == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp := s.post(t, "/api/orders", token(t, "tenant-a", "staff"), map[string]interface{}{
		"channel": "dine-in",
		"table":   map[string]interface{}{"number": "T1", "category_id": 1},
		"items": []map[string]interface{}{
			{"menu_item_id": 1, "name": "Masala Dosa", "unit_price": "120", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	n, err := s.relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msg := readMessage(t, kitchen)
	assert.Equal(t, kds.EventKOTCreated, msg.Event)
	var ticket kds.KOTCreated
	require.NoError(t, json.Unmarshal(msg.Data, &ticket))
	assert.Equal(t, 1, ticket.Sequence)
	require.Len(t, ticket.Items, 1)
	assert.Equal(t, "Masala Dosa", ticket.Items[0].Name)
	assert.Equal(t, 2, ticket.Items[0].Quantity)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "a different tenant must not see the ticket")
}

func TestWaiterCallReachesStaff(t *testing.T) {
	s := setup(t, nil)
	pos := s.dial(t, token(t, "tenant-a", "staff"))
	require.Eventually(t, func() bool { return s.hub.RoomSize("tenant-a") == 1 }, 2*time.Second, 10*time.Millisecond)

	resp := s.post(t, "/api/guest/waiter", token(t, "tenant-a", "guest"), map[string]interface{}{
		"table": map[string]interface{}{"number": "T9", "category_id": 2},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_, err := s.relay.DispatchPending(context.Background())
	require.NoError(t, err)

	msg := readMessage(t, pos)
	assert.Equal(t, kds.EventWaiterCalled, msg.Event)
	var call kds.WaiterCalled
	require.NoError(t, json.Unmarshal(msg.Data, &call))
	assert.Equal(t, "T9", call.TableRef.Number)
}

func TestRateLimitApplied(t *testing.T) {
	s := setup(t, middlewares.NewRateLimiter(1, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(s.server.URL + "/ping")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
