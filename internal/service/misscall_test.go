package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

func mustParseCalls(t *testing.T, content string) []models.MissedCall {
	t.Helper()
	calls, errs := ParseMissedCallsCSV(strings.NewReader(content), nil)
	require.Empty(t, errs)
	return calls
}

func TestParseMissedCallsCSV(t *testing.T) {
	content := "\ufeffani,loanBriefId,userName,start_stamp,duration,billsec,trangThai,trangThaiChung,GhiAm\n" +
		"912 345 678,LB1,agent1,2024-08-01 10:00:00,abc,0,NO_ANSWER,Nhỡ,rec.wav\n" +
		",,,,,,,,\n" +
		"0988,LB2,agent2,01/08/2024 11:30:00,30,5,BUSY,Nhỡ,\n"
	calls, errs := ParseMissedCallsCSV(strings.NewReader(content), nil)
	require.Empty(t, errs)
	require.Len(t, calls, 2)

	assert.Equal(t, "0912345678", calls[0].ANI)
	assert.Equal(t, "LB1", calls[0].LoanBriefID)
	assert.Equal(t, 0, calls[0].Duration, "non-numeric duration becomes zero")
	assert.Equal(t, "NO_ANSWER", calls[0].Reason)
	assert.Equal(t, "rec.wav", calls[0].Recording)
	require.NotNil(t, calls[0].Start)
	assert.Equal(t, 10, calls[0].Start.Hour())

	assert.Equal(t, 30, calls[1].Duration)
	require.NotNil(t, calls[1].Start)
	assert.Equal(t, 11, calls[1].Start.Hour())
}

func TestParseMissedCallsCSVErrors(t *testing.T) {
	_, errs := ParseMissedCallsCSV(strings.NewReader("phone,start_stamp\n0901,x\n"), nil)
	assert.Equal(t, []string{"missing column: ani"}, errs)

	_, errs = ParseMissedCallsCSV(strings.NewReader("ani,start_stamp\n0901,yesterday\n,2024-08-01 10:00:00\n"), nil)
	assert.Len(t, errs, 2)
}

func TestImportReplacesCallsInBatches(t *testing.T) {
	store := db.NewMemoryStore()
	clock := newFakeClock()
	svc := &MissCallService{Store: store, BatchSize: 100, Clock: clock.Now}
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("ani,start_stamp\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "09%08d,2024-08-01 10:00:00\n", i)
	}
	summary, err := svc.Import(ctx, mustParseCalls(t, b.String()))
	require.NoError(t, err)
	assert.Equal(t, 250, summary.Inserted)
	assert.Equal(t, 3, summary.Batches)

	summary, err = svc.Import(ctx, mustParseCalls(t, "ani\n0901\n"))
	require.NoError(t, err)
	assert.Equal(t, 250, summary.Deleted)
	assert.Equal(t, 1, summary.Inserted)

	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Total)
	require.NotNil(t, s.LastImportAt)
	assert.Equal(t, clock.Now(), *s.LastImportAt)
}

func TestImportFailureKeepsPreviousCalls(t *testing.T) {
	store := db.NewMemoryStore()
	svc := &MissCallService{Store: store, BatchSize: 1}
	ctx := context.Background()

	_, err := svc.Import(ctx, mustParseCalls(t, "ani\n0901\n0902\n"))
	require.NoError(t, err)

	store.FailOn("InsertMissedCalls", errors.New("copy failed"))
	_, err = svc.Import(ctx, mustParseCalls(t, "ani\n0903\n"))
	assert.Error(t, err)

	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Total)
}
