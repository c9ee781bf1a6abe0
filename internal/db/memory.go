package db

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/callcenter-console/backend/internal/models"
)

// MemoryStore is an in-process Backend used for local runs and tests.
// Transactions hold the store lock and restore a snapshot on error.
type MemoryStore struct {
	memRepo

	mu     sync.Mutex
	data   memData
	failOn map[string]error
}

type memData struct {
	customers    []models.Customer
	interactions []models.Interaction
	tickets      []models.Ticket
	config       []models.ConfigRow
	agents       map[string]models.Agent
	sessions     map[string]models.Session
	missedCalls  []models.MissedCall

	customerSeq    int64
	interactionSeq int64
	missedCallSeq  int64
}

func (d memData) clone() memData {
	out := d
	out.customers = append([]models.Customer(nil), d.customers...)
	out.interactions = append([]models.Interaction(nil), d.interactions...)
	out.tickets = append([]models.Ticket(nil), d.tickets...)
	out.config = append([]models.ConfigRow(nil), d.config...)
	out.missedCalls = append([]models.MissedCall(nil), d.missedCalls...)
	out.agents = make(map[string]models.Agent, len(d.agents))
	for k, v := range d.agents {
		out.agents[k] = v
	}
	out.sessions = make(map[string]models.Session, len(d.sessions))
	for k, v := range d.sessions {
		out.sessions[k] = v
	}
	return out
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		data: memData{
			agents:   map[string]models.Agent{},
			sessions: map[string]models.Session{},
		},
		failOn: map[string]error{},
	}
	m.memRepo = memRepo{m: m}
	return m
}

// SeedConfig appends dropdown rows.
func (m *MemoryStore) SeedConfig(rows ...models.ConfigRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.config = append(m.data.config, rows...)
}

// FailOn makes the named repository operation return err until cleared
// with a nil err.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, op)
		return
	}
	m.failOn[op] = err
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	err := m.failOn["Ping"]
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	if err := fn(memRepo{m: m, tx: true}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

type memRepo struct {
	m  *MemoryStore
	tx bool
}

func (r memRepo) enter(op string) (func(), error) {
	unlock := func() {}
	if !r.tx {
		r.m.mu.Lock()
		unlock = r.m.mu.Unlock
	}
	if err := r.m.failOn[op]; err != nil {
		unlock()
		return nil, err
	}
	return unlock, nil
}

func (r memRepo) FindCustomerByPhone(ctx context.Context, phone string) (models.Customer, error) {
	done, err := r.enter("FindCustomerByPhone")
	if err != nil {
		return models.Customer{}, err
	}
	defer done()
	for _, c := range r.m.data.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return models.Customer{}, ErrNotFound
}

func (r memRepo) GetCustomer(ctx context.Context, code int64) (models.Customer, error) {
	done, err := r.enter("GetCustomer")
	if err != nil {
		return models.Customer{}, err
	}
	defer done()
	if i := r.customerIndex(code); i >= 0 {
		return r.m.data.customers[i], nil
	}
	return models.Customer{}, ErrNotFound
}

func (r memRepo) customerIndex(code int64) int {
	for i, c := range r.m.data.customers {
		if c.Code == code {
			return i
		}
	}
	return -1
}

func (r memRepo) InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	done, err := r.enter("InsertCustomer")
	if err != nil {
		return models.Customer{}, err
	}
	defer done()
	for _, existing := range r.m.data.customers {
		if existing.Phone == c.Phone {
			return models.Customer{}, ErrConflict
		}
	}
	r.m.data.customerSeq++
	c.Code = r.m.data.customerSeq
	r.m.data.customers = append(r.m.data.customers, c)
	return c, nil
}

func (r memRepo) TouchCustomer(ctx context.Context, code int64, at time.Time) error {
	done, err := r.enter("TouchCustomer")
	if err != nil {
		return err
	}
	defer done()
	i := r.customerIndex(code)
	if i < 0 {
		return ErrNotFound
	}
	r.m.data.customers[i].LastActivity = at
	return nil
}

func (r memRepo) UpdateCustomerContact(ctx context.Context, code int64, name, email string) (models.Customer, error) {
	done, err := r.enter("UpdateCustomerContact")
	if err != nil {
		return models.Customer{}, err
	}
	defer done()
	i := r.customerIndex(code)
	if i < 0 {
		return models.Customer{}, ErrNotFound
	}
	r.m.data.customers[i].Name = name
	r.m.data.customers[i].Email = email
	return r.m.data.customers[i], nil
}

func (r memRepo) ListPendingTickets(ctx context.Context, customerCode int64) ([]models.PendingTicket, error) {
	done, err := r.enter("ListPendingTickets")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.PendingTicket
	for _, t := range r.m.data.tickets {
		if t.CustomerCode != customerCode || t.Status != models.StatusPending {
			continue
		}
		p := models.PendingTicket{Ticket: t}
		var latest int64
		for _, i := range r.m.data.interactions {
			if i.TicketSerial == t.Serial && i.Code > latest {
				latest = i.Code
				p.RequestType = i.RequestType
				p.Detail = i.Detail
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Code < out[b].Code })
	return out, nil
}

func (r memRepo) ticketIndex(serial string) int {
	for i, t := range r.m.data.tickets {
		if t.Serial == serial {
			return i
		}
	}
	return -1
}

func (r memRepo) GetTicket(ctx context.Context, serial string) (models.Ticket, error) {
	done, err := r.enter("GetTicket")
	if err != nil {
		return models.Ticket{}, err
	}
	defer done()
	if i := r.ticketIndex(serial); i >= 0 {
		return r.m.data.tickets[i], nil
	}
	return models.Ticket{}, ErrNotFound
}

func (r memRepo) NextTicketCode(ctx context.Context) (int64, error) {
	done, err := r.enter("NextTicketCode")
	if err != nil {
		return 0, err
	}
	defer done()
	var max int64
	for _, t := range r.m.data.tickets {
		if t.Code > max {
			max = t.Code
		}
	}
	return max + 1, nil
}

func (r memRepo) InsertTicket(ctx context.Context, t models.Ticket) error {
	done, err := r.enter("InsertTicket")
	if err != nil {
		return err
	}
	defer done()
	for _, existing := range r.m.data.tickets {
		if existing.Serial == t.Serial || existing.Code == t.Code {
			return ErrConflict
		}
	}
	r.m.data.tickets = append(r.m.data.tickets, t)
	return nil
}

func (r memRepo) UpdateTicketProgress(ctx context.Context, serial string, status models.TicketStatus, interactionEnd int64, timeEnd time.Time) error {
	done, err := r.enter("UpdateTicketProgress")
	if err != nil {
		return err
	}
	defer done()
	i := r.ticketIndex(serial)
	if i < 0 {
		return ErrNotFound
	}
	t := &r.m.data.tickets[i]
	t.Status = status
	t.InteractionEnd = interactionEnd
	t.TimeEnd = timeEnd
	return nil
}

func (r memRepo) InsertInteraction(ctx context.Context, i models.Interaction) (models.Interaction, error) {
	done, err := r.enter("InsertInteraction")
	if err != nil {
		return models.Interaction{}, err
	}
	defer done()
	if r.customerIndex(i.CustomerCode) < 0 {
		return models.Interaction{}, errors.New("interaction references unknown customer")
	}
	r.m.data.interactionSeq++
	i.Code = r.m.data.interactionSeq
	r.m.data.interactions = append(r.m.data.interactions, i)
	return i, nil
}

func (r memRepo) SetInteractionStatusBySerial(ctx context.Context, serial string, status models.TicketStatus) (int64, error) {
	done, err := r.enter("SetInteractionStatusBySerial")
	if err != nil {
		return 0, err
	}
	defer done()
	var n int64
	for i := range r.m.data.interactions {
		if r.m.data.interactions[i].TicketSerial == serial {
			r.m.data.interactions[i].Status = status
			n++
		}
	}
	return n, nil
}

func (r memRepo) ListInteractionsByCustomer(ctx context.Context, customerCode int64, limit int) ([]models.Interaction, error) {
	done, err := r.enter("ListInteractionsByCustomer")
	if err != nil {
		return nil, err
	}
	defer done()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Interaction
	for _, i := range r.m.data.interactions {
		if i.CustomerCode == customerCode {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].TimeStart.Equal(out[b].TimeStart) {
			return out[a].TimeStart.After(out[b].TimeStart)
		}
		return out[a].Code > out[b].Code
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memRepo) ListInteractionsBySerial(ctx context.Context, serial string) ([]models.Interaction, error) {
	done, err := r.enter("ListInteractionsBySerial")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.Interaction
	for _, i := range r.m.data.interactions {
		if i.TicketSerial == serial {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r memRepo) ListConfigRows(ctx context.Context) ([]models.ConfigRow, error) {
	done, err := r.enter("ListConfigRows")
	if err != nil {
		return nil, err
	}
	defer done()
	return append([]models.ConfigRow(nil), r.m.data.config...), nil
}

func (r memRepo) GetAgent(ctx context.Context, id string) (models.Agent, error) {
	done, err := r.enter("GetAgent")
	if err != nil {
		return models.Agent{}, err
	}
	defer done()
	a, ok := r.m.data.agents[id]
	if !ok {
		return models.Agent{}, ErrNotFound
	}
	return a, nil
}

func (r memRepo) UpsertAgent(ctx context.Context, a models.Agent) error {
	done, err := r.enter("UpsertAgent")
	if err != nil {
		return err
	}
	defer done()
	if prev, ok := r.m.data.agents[a.ID]; ok {
		a.LastTimeActive = prev.LastTimeActive
	}
	r.m.data.agents[a.ID] = a
	return nil
}

func (r memRepo) TouchAgent(ctx context.Context, id string, at time.Time) error {
	done, err := r.enter("TouchAgent")
	if err != nil {
		return err
	}
	defer done()
	a, ok := r.m.data.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.LastTimeActive = &at
	r.m.data.agents[id] = a
	return nil
}

func (r memRepo) ListAgentsActiveSince(ctx context.Context, since time.Time) ([]models.Agent, error) {
	done, err := r.enter("ListAgentsActiveSince")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.Agent
	for _, a := range r.m.data.agents {
		if a.LastTimeActive != nil && !a.LastTimeActive.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastTimeActive.Equal(*out[j].LastTimeActive) {
			return out[i].LastTimeActive.After(*out[j].LastTimeActive)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memRepo) InsertSession(ctx context.Context, s models.Session) error {
	done, err := r.enter("InsertSession")
	if err != nil {
		return err
	}
	defer done()
	if _, ok := r.m.data.sessions[s.Token]; ok {
		return ErrConflict
	}
	r.m.data.sessions[s.Token] = s
	return nil
}

func (r memRepo) GetSession(ctx context.Context, token string) (models.Session, error) {
	done, err := r.enter("GetSession")
	if err != nil {
		return models.Session{}, err
	}
	defer done()
	s, ok := r.m.data.sessions[token]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

func (r memRepo) DeleteSession(ctx context.Context, token string) error {
	done, err := r.enter("DeleteSession")
	if err != nil {
		return err
	}
	defer done()
	delete(r.m.data.sessions, token)
	return nil
}

func (r memRepo) DeleteMissedCalls(ctx context.Context) (int64, error) {
	done, err := r.enter("DeleteMissedCalls")
	if err != nil {
		return 0, err
	}
	defer done()
	n := int64(len(r.m.data.missedCalls))
	r.m.data.missedCalls = nil
	return n, nil
}

func (r memRepo) InsertMissedCalls(ctx context.Context, calls []models.MissedCall) (int64, error) {
	done, err := r.enter("InsertMissedCalls")
	if err != nil {
		return 0, err
	}
	defer done()
	for _, c := range calls {
		r.m.data.missedCallSeq++
		c.ID = r.m.data.missedCallSeq
		r.m.data.missedCalls = append(r.m.data.missedCalls, c)
	}
	return int64(len(calls)), nil
}

func (r memRepo) ListMissedCallsByANI(ctx context.Context, ani string, limit int) ([]models.MissedCall, error) {
	done, err := r.enter("ListMissedCallsByANI")
	if err != nil {
		return nil, err
	}
	defer done()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.MissedCall
	for _, c := range r.m.data.missedCalls {
		if c.ANI == ani {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Start, out[j].Start
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memRepo) MissCallSummary(ctx context.Context) (models.MissCallSummary, error) {
	done, err := r.enter("MissCallSummary")
	if err != nil {
		return models.MissCallSummary{}, err
	}
	defer done()
	var s models.MissCallSummary
	for _, c := range r.m.data.missedCalls {
		s.Total++
		if c.Start != nil && (s.LastCallAt == nil || c.Start.After(*s.LastCallAt)) {
			t := *c.Start
			s.LastCallAt = &t
		}
		if s.LastImportAt == nil || c.ImportedAt.After(*s.LastImportAt) {
			t := c.ImportedAt
			s.LastImportAt = &t
		}
	}
	return s, nil
}

func (r memRepo) CountInteractionsByAgent(ctx context.Context, tr models.TimeRange) ([]models.AgentInteractionCount, error) {
	done, err := r.enter("CountInteractionsByAgent")
	if err != nil {
		return nil, err
	}
	defer done()
	counts := map[string]int64{}
	for _, i := range r.m.data.interactions {
		if tr.Contains(i.TimeStart) {
			counts[i.AgentID]++
		}
	}
	out := make([]models.AgentInteractionCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.AgentInteractionCount{AgentID: id, Interactions: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Interactions != out[j].Interactions {
			return out[i].Interactions > out[j].Interactions
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out, nil
}

func (r memRepo) ListTicketSpans(ctx context.Context, tr models.TimeRange) ([]models.TicketSpan, error) {
	done, err := r.enter("ListTicketSpans")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []models.TicketSpan
	for _, t := range r.m.data.tickets {
		if tr.Contains(t.TimeStart) {
			out = append(out, models.TicketSpan{Serial: t.Serial, AgentID: t.AgentID, TimeStart: t.TimeStart, TimeEnd: t.TimeEnd})
		}
	}
	return out, nil
}
