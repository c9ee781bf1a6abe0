package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/callcenter-console/backend/internal/models"
)

func TestAverageProcessingTimes(t *testing.T) {
	base := time.Date(2024, 8, 4, 9, 0, 0, 0, time.UTC)
	spans := []models.TicketSpan{
		{AgentID: "B", TimeStart: base, TimeEnd: base.Add(10 * time.Minute)},
		{AgentID: "A", TimeStart: base, TimeEnd: base.Add(30 * time.Minute)},
		{AgentID: "B", TimeStart: base, TimeEnd: base.Add(20 * time.Minute)},
		{AgentID: "B", TimeStart: base, TimeEnd: base.Add(-time.Minute)},
		{AgentID: "C", TimeStart: base},
	}
	got := AverageProcessingTimes(spans)
	assert.Equal(t, []models.AgentProcessingTime{
		{AgentID: "A", Tickets: 1, AverageMinutes: 30},
		{AgentID: "B", Tickets: 2, AverageMinutes: 15},
	}, got)
}

func TestReportsFromSavedTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "0912345678")

	_, err := f.reconciler.Save(ctx, validRequest(c.Code, "PENDING"))
	require.NoError(t, err)
	f.clock.Advance(12 * time.Minute)
	_, err = f.reconciler.Save(ctx, validRequest(c.Code, "DONE"))
	require.NoError(t, err)

	reports := &ReportService{Store: f.store}
	counts, err := reports.AgentInteractions(ctx, models.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, []models.AgentInteractionCount{{AgentID: "SONTX", Interactions: 2}}, counts)

	times, err := reports.ProcessingTimes(ctx, models.TimeRange{})
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, 12.0, times[0].AverageMinutes)

	data, err := reports.ExportXLSX(ctx, models.TimeRange{})
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Interactions", "A2")
	require.NoError(t, err)
	assert.Equal(t, "SONTX", v)
	v, err = wb.GetCellValue("ProcessingTime", "C2")
	require.NoError(t, err)
	assert.Equal(t, "12", v)
}
