package models

import (
	"strings"
	"time"
)

type TicketStatus string

const (
	StatusPending   TicketStatus = "PENDING"
	StatusDone      TicketStatus = "DONE"
	StatusCancelled TicketStatus = "CANCELLED"
)

// ParseTicketStatus accepts any casing and surrounding whitespace.
func ParseTicketStatus(v string) (TicketStatus, bool) {
	s := TicketStatus(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case StatusPending, StatusDone, StatusCancelled:
		return s, true
	}
	return "", false
}

// Terminal reports whether a ticket in this status is closed.
func (s TicketStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

type Agent struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	LastTimeActive *time.Time `json:"last_time_active"`
}

func (a Agent) IsAdmin() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}

type Customer struct {
	Code          int64     `json:"code"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CustomerID    string    `json:"customer_id"`
	FirstActivity time.Time `json:"first_activity"`
	LastActivity  time.Time `json:"last_activity"`
}

type Interaction struct {
	Code         int64        `json:"code"`
	CustomerCode int64        `json:"customer_code"`
	AgentID      string       `json:"agent_id"`
	Note         string       `json:"note"`
	RequestType  string       `json:"request_type"`
	Detail       string       `json:"detail"`
	Status       TicketStatus `json:"status"`
	TicketSerial string       `json:"ticket_serial"`
	TimeStart    time.Time    `json:"time_start"`
}

type Ticket struct {
	Serial           string       `json:"serial"`
	Code             int64        `json:"code"`
	CustomerCode     int64        `json:"customer_code"`
	AgentID          string       `json:"agent_id"`
	Channel          string       `json:"channel"`
	Department       string       `json:"department"`
	ServiceType      string       `json:"service_type"`
	Status           TicketStatus `json:"status"`
	InteractionStart int64        `json:"interaction_start"`
	InteractionEnd   int64        `json:"interaction_end"`
	TimeStart        time.Time    `json:"time_start"`
	TimeEnd          time.Time    `json:"time_end"`
}

// PendingTicket is an open ticket together with the request type and detail
// of its latest interaction.
type PendingTicket struct {
	Ticket
	RequestType string `json:"request_type"`
	Detail      string `json:"detail"`
}

type ConfigRow struct {
	DropdownName string `json:"dropdown_name"`
	Value1       string `json:"value1"`
	Value2       string `json:"value2"`
}

type MissedCall struct {
	ID            int64      `json:"id"`
	ANI           string     `json:"ani"`
	DNIS          string     `json:"dnis"`
	UserName      string     `json:"user_name"`
	LoanBriefID   string     `json:"loan_brief_id"`
	Start         *time.Time `json:"start"`
	End           *time.Time `json:"end"`
	Duration      int        `json:"duration"`
	BillSec       int        `json:"billsec"`
	Reason        string     `json:"reason"`
	GeneralStatus string     `json:"general_status"`
	Recording     string     `json:"recording"`
	ImportedAt    time.Time  `json:"imported_at"`
}

type MissCallSummary struct {
	Total        int64      `json:"total"`
	LastCallAt   *time.Time `json:"last_call_at"`
	LastImportAt *time.Time `json:"last_import_at"`
}

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	AgentID   string    `json:"agent_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeRange bounds report queries; a nil end is open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

type AgentInteractionCount struct {
	AgentID      string `json:"agent_id"`
	Interactions int64  `json:"interactions"`
}

type TicketSpan struct {
	Serial    string    `json:"serial"`
	AgentID   string    `json:"agent_id"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
}

type AgentProcessingTime struct {
	AgentID        string  `json:"agent_id"`
	Tickets        int     `json:"tickets"`
	AverageMinutes float64 `json:"average_minutes"`
}
