package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

func TestBuildCatalogPartitionsRows(t *testing.T) {
	cat := BuildCatalog([]models.ConfigRow{
		{DropdownName: "Request Type", Value1: "Khiếu nại"},
		{DropdownName: "request_type", Value1: "Hỏi thông tin"},
		{DropdownName: "request_type", Value1: "Khiếu nại"},
		{DropdownName: "detail", Value1: "Phí dịch vụ", Value2: "Khiếu nại"},
		{DropdownName: "detail", Value1: "Thái độ nhân viên", Value2: "Khiếu nại"},
		{DropdownName: "status", Value1: "DONE", Value2: "Hoàn thành"},
		{DropdownName: "channel", Value1: ""},
		{DropdownName: "priority", Value1: "High"},
	})

	assert.Equal(t, []Option{{"Khiếu nại", "Khiếu nại"}, {"Hỏi thông tin", "Hỏi thông tin"}}, cat.Options(CategoryRequestType))
	assert.Equal(t, []Option{{"DONE", "Hoàn thành"}}, cat.Options(CategoryStatus))
	assert.Len(t, cat.Details["Khiếu nại"], 2)
	assert.Empty(t, cat.Options(CategoryChannel))
	assert.Len(t, cat.Options("priority"), 1)

	assert.True(t, cat.Allows(CategoryRequestType, "Khiếu nại"))
	assert.False(t, cat.Allows(CategoryRequestType, "Khác"))
	assert.True(t, cat.Allows(CategoryChannel, "anything"), "undefined category accepts any value")
	assert.True(t, cat.AllowsDetail("Khiếu nại", "Phí dịch vụ"))
	assert.False(t, cat.AllowsDetail("Khiếu nại", "Lịch thanh toán"))
	assert.True(t, cat.AllowsDetail("Hỏi thông tin", "anything"))
}

func TestCatalogCacheLoad(t *testing.T) {
	store := db.NewMemoryStore()
	cache := &CatalogCache{Store: store, Logger: zerolog.Nop()}
	assert.Empty(t, cache.Get().Categories)

	store.SeedConfig(models.ConfigRow{DropdownName: "channel", Value1: "Hotline"})
	_, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cache.Get().Options(CategoryChannel), 1)

	store.FailOn("ListConfigRows", errors.New("db down"))
	_, err = cache.Load(context.Background())
	assert.Error(t, err)
	assert.Len(t, cache.Get().Options(CategoryChannel), 1, "failed reload keeps previous catalog")
}
