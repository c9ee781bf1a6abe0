package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

const DefaultImportBatchSize = 100

var callTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04",
}

// ParseMissedCallsCSV reads a call-center export. Rows with errors are
// reported by line number and left out of the result.
func ParseMissedCallsCSV(r io.Reader, loc *time.Location) ([]models.MissedCall, []string) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	if _, ok := index["ani"]; !ok {
		return nil, []string{"missing column: ani"}
	}

	var out []models.MissedCall
	var errs []string
	line := 1
	for {
		rec, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if isBlankRecord(rec) {
			continue
		}

		ani := getField(rec, index, "ani")
		if ani == "" {
			errs = append(errs, fmt.Sprintf("line %d: ani is required", line))
			continue
		}
		phone, _ := NormalizePhone(ani)
		call := models.MissedCall{
			ANI:           phone,
			DNIS:          getFieldAny(rec, index, "dnis", "destination_number"),
			UserName:      getFieldAny(rec, index, "userName", "user_name"),
			LoanBriefID:   getFieldAny(rec, index, "loanBriefId", "loan_brief_id"),
			Duration:      atoiOrZero(getField(rec, index, "duration")),
			BillSec:       atoiOrZero(getField(rec, index, "billsec")),
			Reason:        getFieldAny(rec, index, "trangThai", "reason", "hangup_cause"),
			GeneralStatus: getFieldAny(rec, index, "trangThaiChung", "general_status"),
			Recording:     getFieldAny(rec, index, "GhiAm", "recording"),
		}
		var ok bool
		if call.Start, ok = parseCallTime(getFieldAny(rec, index, "start_stamp", "start"), loc); !ok {
			errs = append(errs, fmt.Sprintf("line %d: invalid start_stamp", line))
			continue
		}
		if call.End, ok = parseCallTime(getFieldAny(rec, index, "end_stamp", "end"), loc); !ok {
			errs = append(errs, fmt.Sprintf("line %d: invalid end_stamp", line))
			continue
		}
		out = append(out, call)
	}
	return out, errs
}

func parseCallTime(v string, loc *time.Location) (*time.Time, bool) {
	if v == "" {
		return nil, true
	}
	for _, layout := range callTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}

func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[normalizeHeader(name)]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, name); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

type ImportSummary struct {
	Parsed   int `json:"parsed"`
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

// MissCallService replaces the missed-call table from uploaded exports.
type MissCallService struct {
	Store     db.Backend
	BatchSize int
	Clock     Clock
	Logger    zerolog.Logger
}

// Import swaps the whole table for calls in one transaction.
func (s *MissCallService) Import(ctx context.Context, calls []models.MissedCall) (ImportSummary, error) {
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultImportBatchSize
	}
	now := s.Clock.now()
	for i := range calls {
		calls[i].ImportedAt = now
	}

	summary := ImportSummary{Parsed: len(calls)}
	err := s.Store.InTx(ctx, func(repo db.Repository) error {
		deleted, err := repo.DeleteMissedCalls(ctx)
		if err != nil {
			return err
		}
		summary.Deleted = int(deleted)
		for start := 0; start < len(calls); start += batch {
			end := start + batch
			if end > len(calls) {
				end = len(calls)
			}
			n, err := repo.InsertMissedCalls(ctx, calls[start:end])
			if err != nil {
				return fmt.Errorf("batch %d: %w", summary.Batches+1, err)
			}
			summary.Inserted += int(n)
			summary.Batches++
		}
		return nil
	})
	if err != nil {
		s.Logger.Error().Err(err).Msg("missed call import failed")
		return ImportSummary{Parsed: len(calls)}, err
	}
	s.Logger.Info().Int("inserted", summary.Inserted).Int("deleted", summary.Deleted).Msg("missed calls imported")
	return summary, nil
}

func (s *MissCallService) Summary(ctx context.Context) (models.MissCallSummary, error) {
	return s.Store.MissCallSummary(ctx)
}
