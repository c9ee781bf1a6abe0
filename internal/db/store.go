package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/utils"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

type queries struct {
	q querier
}

type Store struct {
	queries
	Pool *pgxpool.Pool
}

var ticketCodeLock = utils.LockKey("ticket.code")

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{queries: queries{q: pool}, Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InTx(ctx context.Context, fn func(Repository) error) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(queries{q: tx})
	})
}

const customerColumns = `code, phone, name, email, customer_id, first_activity, last_activity`

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.Code, &c.Phone, &c.Name, &c.Email, &c.CustomerID, &c.FirstActivity, &c.LastActivity)
	return c, mapError(err)
}

func (q queries) FindCustomerByPhone(ctx context.Context, phone string) (models.Customer, error) {
	return scanCustomer(q.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customer WHERE phone = $1`, phone))
}

func (q queries) GetCustomer(ctx context.Context, code int64) (models.Customer, error) {
	return scanCustomer(q.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customer WHERE code = $1`, code))
}

func (q queries) InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	err := q.q.QueryRow(ctx, `
		INSERT INTO customer (phone, name, email, customer_id, first_activity, last_activity)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING code
	`, c.Phone, c.Name, c.Email, c.CustomerID, c.FirstActivity, c.LastActivity).Scan(&c.Code)
	return c, mapError(err)
}

func (q queries) TouchCustomer(ctx context.Context, code int64, at time.Time) error {
	tag, err := q.q.Exec(ctx, `UPDATE customer SET last_activity = $1 WHERE code = $2`, at, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q queries) UpdateCustomerContact(ctx context.Context, code int64, name, email string) (models.Customer, error) {
	return scanCustomer(q.q.QueryRow(ctx, `
		UPDATE customer SET name = $1, email = $2 WHERE code = $3
		RETURNING `+customerColumns, name, email, code))
}

const ticketColumns = `t.serial, t.code, t.customer_code, t.agent_id, t.channel, t.department, t.service_type, t.status,
	t.interaction_start, t.interaction_end, t.time_start, t.time_end`

func ticketDest(t *models.Ticket) []any {
	return []any{&t.Serial, &t.Code, &t.CustomerCode, &t.AgentID, &t.Channel, &t.Department, &t.ServiceType, &t.Status,
		&t.InteractionStart, &t.InteractionEnd, &t.TimeStart, &t.TimeEnd}
}

func (q queries) ListPendingTickets(ctx context.Context, customerCode int64) ([]models.PendingTicket, error) {
	rows, err := q.q.Query(ctx, `
		SELECT `+ticketColumns+`, COALESCE(li.request_type, ''), COALESCE(li.detail, '')
		FROM ticket t
		LEFT JOIN LATERAL (
			SELECT i.request_type, i.detail FROM interaction i
			WHERE i.ticket_serial = t.serial
			ORDER BY i.code DESC LIMIT 1
		) li ON TRUE
		WHERE t.customer_code = $1 AND t.status = $2
		ORDER BY t.code ASC
	`, customerCode, models.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingTicket
	for rows.Next() {
		var p models.PendingTicket
		dest := append(ticketDest(&p.Ticket), &p.RequestType, &p.Detail)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q queries) GetTicket(ctx context.Context, serial string) (models.Ticket, error) {
	var t models.Ticket
	err := q.q.QueryRow(ctx, `SELECT `+ticketColumns+` FROM ticket t WHERE t.serial = $1`, serial).Scan(ticketDest(&t)...)
	return t, mapError(err)
}

// NextTicketCode serializes code allocation for the rest of the enclosing
// transaction. Outside a transaction the lock is released immediately and
// the unique index on ticket.code is the only guard.
func (q queries) NextTicketCode(ctx context.Context) (int64, error) {
	if _, err := q.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ticketCodeLock); err != nil {
		return 0, err
	}
	var code int64
	err := q.q.QueryRow(ctx, `SELECT COALESCE(MAX(code), 0) + 1 FROM ticket`).Scan(&code)
	return code, err
}

func (q queries) InsertTicket(ctx context.Context, t models.Ticket) error {
	_, err := q.q.Exec(ctx, `
		INSERT INTO ticket (serial, code, customer_code, agent_id, channel, department, service_type, status,
			interaction_start, interaction_end, time_start, time_end)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, t.Serial, t.Code, t.CustomerCode, t.AgentID, t.Channel, t.Department, t.ServiceType, t.Status,
		t.InteractionStart, t.InteractionEnd, t.TimeStart, t.TimeEnd)
	return mapError(err)
}

func (q queries) UpdateTicketProgress(ctx context.Context, serial string, status models.TicketStatus, interactionEnd int64, timeEnd time.Time) error {
	tag, err := q.q.Exec(ctx, `
		UPDATE ticket SET status = $1, interaction_end = $2, time_end = $3
		WHERE serial = $4
	`, status, interactionEnd, timeEnd, serial)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const interactionColumns = `code, customer_code, agent_id, note, request_type, detail, status, ticket_serial, time_start`

func (q queries) scanInteractions(ctx context.Context, sql string, args ...any) ([]models.Interaction, error) {
	rows, err := q.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var i models.Interaction
		if err := rows.Scan(&i.Code, &i.CustomerCode, &i.AgentID, &i.Note, &i.RequestType, &i.Detail, &i.Status, &i.TicketSerial, &i.TimeStart); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (q queries) InsertInteraction(ctx context.Context, i models.Interaction) (models.Interaction, error) {
	err := q.q.QueryRow(ctx, `
		INSERT INTO interaction (customer_code, agent_id, note, request_type, detail, status, ticket_serial, time_start)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING code
	`, i.CustomerCode, i.AgentID, i.Note, i.RequestType, i.Detail, i.Status, i.TicketSerial, i.TimeStart).Scan(&i.Code)
	return i, mapError(err)
}

func (q queries) SetInteractionStatusBySerial(ctx context.Context, serial string, status models.TicketStatus) (int64, error) {
	tag, err := q.q.Exec(ctx, `UPDATE interaction SET status = $1 WHERE ticket_serial = $2`, status, serial)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q queries) ListInteractionsByCustomer(ctx context.Context, customerCode int64, limit int) ([]models.Interaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return q.scanInteractions(ctx, `SELECT `+interactionColumns+` FROM interaction
		WHERE customer_code = $1 ORDER BY time_start DESC, code DESC LIMIT $2`, customerCode, limit)
}

func (q queries) ListInteractionsBySerial(ctx context.Context, serial string) ([]models.Interaction, error) {
	return q.scanInteractions(ctx, `SELECT `+interactionColumns+` FROM interaction
		WHERE ticket_serial = $1 ORDER BY code ASC`, serial)
}

func (q queries) ListConfigRows(ctx context.Context) ([]models.ConfigRow, error) {
	rows, err := q.q.Query(ctx, `SELECT dropdown_name, value1, value2 FROM config ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConfigRow
	for rows.Next() {
		var r models.ConfigRow
		if err := rows.Scan(&r.DropdownName, &r.Value1, &r.Value2); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const agentColumns = `id, name, email, password, role, last_time_active`

func (q queries) GetAgent(ctx context.Context, id string) (models.Agent, error) {
	var a models.Agent
	err := q.q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agent WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.LastTimeActive)
	return a, mapError(err)
}

func (q queries) UpsertAgent(ctx context.Context, a models.Agent) error {
	_, err := q.q.Exec(ctx, `
		INSERT INTO agent (id, name, email, password, role)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			password = EXCLUDED.password,
			role = EXCLUDED.role
	`, a.ID, a.Name, a.Email, a.PasswordHash, a.Role)
	return err
}

func (q queries) TouchAgent(ctx context.Context, id string, at time.Time) error {
	tag, err := q.q.Exec(ctx, `UPDATE agent SET last_time_active = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q queries) ListAgentsActiveSince(ctx context.Context, since time.Time) ([]models.Agent, error) {
	rows, err := q.q.Query(ctx, `SELECT `+agentColumns+` FROM agent
		WHERE last_time_active >= $1 ORDER BY last_time_active DESC, id ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.LastTimeActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q queries) InsertSession(ctx context.Context, s models.Session) error {
	_, err := q.q.Exec(ctx, `
		INSERT INTO agent_session (id, token, agent_id, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)
	`, s.ID, s.Token, s.AgentID, s.CreatedAt, s.ExpiresAt)
	return mapError(err)
}

func (q queries) GetSession(ctx context.Context, token string) (models.Session, error) {
	var s models.Session
	err := q.q.QueryRow(ctx, `SELECT id, token, agent_id, created_at, expires_at FROM agent_session WHERE token = $1`, token).
		Scan(&s.ID, &s.Token, &s.AgentID, &s.CreatedAt, &s.ExpiresAt)
	return s, mapError(err)
}

func (q queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.q.Exec(ctx, `DELETE FROM agent_session WHERE token = $1`, token)
	return err
}

func (q queries) DeleteMissedCalls(ctx context.Context) (int64, error) {
	tag, err := q.q.Exec(ctx, `DELETE FROM raw_miss_call`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q queries) InsertMissedCalls(ctx context.Context, calls []models.MissedCall) (int64, error) {
	rows := make([][]any, 0, len(calls))
	for _, m := range calls {
		rows = append(rows, []any{m.ANI, m.DNIS, m.UserName, m.LoanBriefID, m.Start, m.End, m.Duration, m.BillSec, m.Reason, m.GeneralStatus, m.Recording, m.ImportedAt})
	}
	return q.q.CopyFrom(ctx, pgx.Identifier{"raw_miss_call"},
		[]string{"ani", "dnis", "user_name", "loan_brief_id", "start_stamp", "end_stamp", "duration", "billsec", "reason", "general_status", "recording", "imported_at"},
		pgx.CopyFromRows(rows))
}

func (q queries) ListMissedCallsByANI(ctx context.Context, ani string, limit int) ([]models.MissedCall, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := q.q.Query(ctx, `
		SELECT id, ani, dnis, user_name, loan_brief_id, start_stamp, end_stamp, duration, billsec, reason, general_status, recording, imported_at
		FROM raw_miss_call
		WHERE ani = $1
		ORDER BY start_stamp DESC NULLS LAST, id DESC
		LIMIT $2
	`, ani, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MissedCall
	for rows.Next() {
		var m models.MissedCall
		if err := rows.Scan(&m.ID, &m.ANI, &m.DNIS, &m.UserName, &m.LoanBriefID, &m.Start, &m.End, &m.Duration, &m.BillSec, &m.Reason, &m.GeneralStatus, &m.Recording, &m.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q queries) MissCallSummary(ctx context.Context) (models.MissCallSummary, error) {
	var s models.MissCallSummary
	err := q.q.QueryRow(ctx, `SELECT COUNT(*), MAX(start_stamp), MAX(imported_at) FROM raw_miss_call`).
		Scan(&s.Total, &s.LastCallAt, &s.LastImportAt)
	return s, err
}

func rangeWheres(column string, r models.TimeRange) (string, []any) {
	var args []any
	var wheres []string
	if r.From != nil {
		args = append(args, *r.From)
		wheres = append(wheres, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if r.To != nil {
		args = append(args, *r.To)
		wheres = append(wheres, fmt.Sprintf("%s < $%d", column, len(args)))
	}
	if len(wheres) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wheres, " AND "), args
}

func (q queries) CountInteractionsByAgent(ctx context.Context, r models.TimeRange) ([]models.AgentInteractionCount, error) {
	where, args := rangeWheres("time_start", r)
	rows, err := q.q.Query(ctx, `SELECT agent_id, COUNT(*) FROM interaction`+where+
		` GROUP BY agent_id ORDER BY COUNT(*) DESC, agent_id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AgentInteractionCount
	for rows.Next() {
		var c models.AgentInteractionCount
		if err := rows.Scan(&c.AgentID, &c.Interactions); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q queries) ListTicketSpans(ctx context.Context, r models.TimeRange) ([]models.TicketSpan, error) {
	where, args := rangeWheres("time_start", r)
	rows, err := q.q.Query(ctx, `SELECT serial, agent_id, time_start, time_end FROM ticket`+where+` ORDER BY code ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TicketSpan
	for rows.Next() {
		var s models.TicketSpan
		if err := rows.Scan(&s.Serial, &s.AgentID, &s.TimeStart, &s.TimeEnd); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
