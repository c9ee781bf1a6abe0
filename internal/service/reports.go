package service

import (
	"bytes"
	"context"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

const (
	sheetInteractions = "Interactions"
	sheetProcessing   = "ProcessingTime"
)

type ReportService struct {
	Store db.Repository
}

func (s *ReportService) AgentInteractions(ctx context.Context, r models.TimeRange) ([]models.AgentInteractionCount, error) {
	counts, err := s.Store.CountInteractionsByAgent(ctx, r)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.AgentInteractionCount{}
	}
	return counts, nil
}

// ProcessingTimes averages time_end - time_start per agent, in minutes.
// Tickets whose end precedes their start are skipped.
func (s *ReportService) ProcessingTimes(ctx context.Context, r models.TimeRange) ([]models.AgentProcessingTime, error) {
	spans, err := s.Store.ListTicketSpans(ctx, r)
	if err != nil {
		return nil, err
	}
	return AverageProcessingTimes(spans), nil
}

func AverageProcessingTimes(spans []models.TicketSpan) []models.AgentProcessingTime {
	type acc struct {
		total float64
		n     int
	}
	byAgent := map[string]*acc{}
	for _, sp := range spans {
		if sp.TimeStart.IsZero() || sp.TimeEnd.IsZero() || sp.TimeEnd.Before(sp.TimeStart) {
			continue
		}
		a := byAgent[sp.AgentID]
		if a == nil {
			a = &acc{}
			byAgent[sp.AgentID] = a
		}
		a.total += sp.TimeEnd.Sub(sp.TimeStart).Minutes()
		a.n++
	}
	out := make([]models.AgentProcessingTime, 0, len(byAgent))
	for id, a := range byAgent {
		out = append(out, models.AgentProcessingTime{
			AgentID:        id,
			Tickets:        a.n,
			AverageMinutes: math.Round(a.total/float64(a.n)*100) / 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// ExportXLSX writes both agent reports to a workbook.
func (s *ReportService) ExportXLSX(ctx context.Context, r models.TimeRange) ([]byte, error) {
	counts, err := s.AgentInteractions(ctx, r)
	if err != nil {
		return nil, err
	}
	times, err := s.ProcessingTimes(ctx, r)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetInteractions); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetProcessing); err != nil {
		return nil, err
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	writeRow := func(sheet string, row int, values ...any) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	writeRow(sheetInteractions, 1, "Agent", "Interactions")
	f.SetCellStyle(sheetInteractions, "A1", "B1", headerStyle)
	for i, c := range counts {
		writeRow(sheetInteractions, i+2, c.AgentID, c.Interactions)
	}

	writeRow(sheetProcessing, 1, "Agent", "Tickets", "Average minutes")
	f.SetCellStyle(sheetProcessing, "A1", "C1", headerStyle)
	for i, t := range times {
		writeRow(sheetProcessing, i+2, t.AgentID, t.Tickets, t.AverageMinutes)
	}

	var buf *bytes.Buffer
	if buf, err = f.WriteToBuffer(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
