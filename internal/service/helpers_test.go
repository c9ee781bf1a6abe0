package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

// fakeClock returns the same instant until advanced.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 8, 4, 9, 59, 13, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testCatalogRows() []models.ConfigRow {
	return []models.ConfigRow{
		{DropdownName: "request_type", Value1: "Hỏi thông tin"},
		{DropdownName: "request_type", Value1: "Khiếu nại"},
		{DropdownName: "detail", Value1: "Lịch thanh toán", Value2: "Hỏi thông tin"},
		{DropdownName: "detail", Value1: "Phí dịch vụ", Value2: "Khiếu nại"},
		{DropdownName: "service_type", Value1: "Dịch vụ CNTT"},
		{DropdownName: "channel", Value1: "Hotline"},
		{DropdownName: "department", Value1: "CSKH"},
		{DropdownName: "status", Value1: "PENDING", Value2: "Đang xử lý"},
	}
}

type fixture struct {
	store      *db.MemoryStore
	clock      *fakeClock
	resolver   *CustomerResolver
	reconciler *TicketReconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := db.NewMemoryStore()
	store.SeedConfig(testCatalogRows()...)
	clock := newFakeClock()

	cache := &CatalogCache{Store: store, Logger: zerolog.Nop()}
	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	return &fixture{
		store:      store,
		clock:      clock,
		resolver:   &CustomerResolver{Store: store, Clock: clock.Now, Logger: zerolog.Nop()},
		reconciler: &TicketReconciler{Store: store, Catalog: cache, Clock: clock.Now, Logger: zerolog.Nop()},
	}
}

func (f *fixture) customer(t *testing.T, phone string) models.Customer {
	t.Helper()
	c, _, err := f.resolver.Resolve(context.Background(), phone)
	require.NoError(t, err)
	return c
}

func validRequest(customerCode int64, status string) SaveRequest {
	return SaveRequest{
		CustomerCode: customerCode,
		AgentID:      "SONTX",
		Note:         "khách hỏi lịch thanh toán",
		RequestType:  "Hỏi thông tin",
		Detail:       "Lịch thanh toán",
		ServiceType:  "Dịch vụ CNTT",
		Status:       status,
		Channel:      "Hotline",
	}
}
