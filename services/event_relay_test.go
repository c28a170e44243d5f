package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/models"
)

type fakePublisher struct {
	mu      sync.Mutex
	sent    map[string][]kds.Message
	failFor map[string]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{sent: map[string][]kds.Message{}, failFor: map[string]bool{}}
}

func (p *fakePublisher) Publish(_ context.Context, tenantID string, msg kds.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[tenantID] {
		return errors.New("hub unavailable")
	}
	p.sent[tenantID] = append(p.sent[tenantID], msg)
	return nil
}

func (p *fakePublisher) ids(tenantID string) []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []uint
	for _, m := range p.sent[tenantID] {
		ids = append(ids, m.ID)
	}
	return ids
}

func (p *fakePublisher) setFailing(tenantID string, fail bool) {
	p.mu.Lock()
	p.failFor[tenantID] = fail
	p.mu.Unlock()
}

func seedEvent(t *testing.T, db *gorm.DB, tenantID, name string) models.OutboxEvent {
	t.Helper()
	ev := models.OutboxEvent{
		TenantID:  tenantID,
		EventName: name,
		Payload:   datatypes.JSON(`{"order_id":1}`),
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}

func TestDispatchPendingPublishesInOrder(t *testing.T) {
	db := setupTestDB(t)
	pub := newFakePublisher()
	relay := NewEventRelay(db, pub)

	a1 := seedEvent(t, db, "tenant-a", kds.EventKOTCreated)
	b1 := seedEvent(t, db, "tenant-b", kds.EventKOTCreated)
	a2 := seedEvent(t, db, "tenant-a", kds.EventStatusChanged)

	sent, err := relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, []uint{a1.ID, a2.ID}, pub.ids("tenant-a"))
	assert.Equal(t, []uint{b1.ID}, pub.ids("tenant-b"))

	data, err := json.Marshal(pub.sent["tenant-a"][0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"event":"order.kot.created","data":{"order_id":1}}`, string(data))

	sent, err = relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	var pending int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("dispatched = ?", false).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestFailedEventHoldsBackItsTenantOnly(t *testing.T) {
	db := setupTestDB(t)
	pub := newFakePublisher()
	relay := NewEventRelay(db, pub)

	a1 := seedEvent(t, db, "tenant-a", kds.EventKOTCreated)
	seedEvent(t, db, "tenant-b", kds.EventWaiterCalled)
	a2 := seedEvent(t, db, "tenant-a", kds.EventStatusChanged)

	pub.setFailing("tenant-a", true)
	sent, err := relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, pub.ids("tenant-a"))

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, a1.ID).Error)
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "hub unavailable", failed.LastError)
	assert.False(t, failed.Dispatched)

	var waiting models.OutboxEvent
	require.NoError(t, db.First(&waiting, a2.ID).Error)
	assert.Zero(t, waiting.Attempts)

	pub.setFailing("tenant-a", false)
	sent, err = relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []uint{a1.ID, a2.ID}, pub.ids("tenant-a"))
}

func TestEventAbandonedAfterMaxAttempts(t *testing.T) {
	db := setupTestDB(t)
	pub := newFakePublisher()
	relay := NewEventRelay(db, pub)
	relay.MaxAttempts = 2

	dead := seedEvent(t, db, "tenant-a", kds.EventKOTCreated)
	pub.setFailing("tenant-a", true)
	for i := 0; i < 3; i++ {
		_, err := relay.DispatchPending(context.Background())
		require.NoError(t, err)
	}

	var ev models.OutboxEvent
	require.NoError(t, db.First(&ev, dead.ID).Error)
	assert.Equal(t, 2, ev.Attempts)

	// later events are no longer held back by the abandoned one
	next := seedEvent(t, db, "tenant-a", kds.EventStatusChanged)
	pub.setFailing("tenant-a", false)
	sent, err := relay.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint{next.ID}, pub.ids("tenant-a"))
}

func TestRunDeliversOnWakeAndStops(t *testing.T) {
	db := setupTestDB(t)
	pub := newFakePublisher()
	relay := NewEventRelay(db, pub)
	relay.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	svc := NewOrderService(db, relay, nil)
	require.NoError(t, svc.CallWaiter(context.Background(), staff, models.TableRef{Number: "T1"}))

	assert.Eventually(t, func() bool {
		return len(pub.ids("tenant-a")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestWakeNeverBlocks(t *testing.T) {
	relay := NewEventRelay(nil, newFakePublisher())
	for i := 0; i < 10; i++ {
		relay.Wake()
	}
	assert.Len(t, relay.wake, 1)
}

func TestRelayDeliversToHubRoom(t *testing.T) {
	db := setupTestDB(t)
	hub := kds.NewHub()
	defer hub.Close()
	relay := NewEventRelay(db, hub)
	svc := NewOrderService(db, relay, nil)

	conn := &chanConn{written: make(chan []byte, 10)}
	_, err := hub.Join("tenant-a", "chef", conn)
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), staff, dineIn("T1", dosa(2)))
	require.NoError(t, err)
	_, err = relay.DispatchPending(context.Background())
	require.NoError(t, err)

	select {
	case data := <-conn.written:
		var msg struct {
			Event string         `json:"event"`
			Data  kds.KOTCreated `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, kds.EventKOTCreated, msg.Event)
		require.Len(t, msg.Data.Items, 1)
		assert.Equal(t, 2, msg.Data.Items[0].Quantity)
		assert.NotEmpty(t, msg.Data.BatchID)
	case <-time.After(time.Second):
		t.Fatal("kitchen display got nothing")
	}
}

type chanConn struct {
	written chan []byte
}

func (c *chanConn) WriteMessage(_ int, data []byte) error {
	c.written <- data
	return nil
}

func (c *chanConn) Close() error { return nil }
