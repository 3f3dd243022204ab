package model

import (
	"strings"
	"time"
)

// DateLayout is the single textual format used for the Date column.
const DateLayout = "2006-01-02 15:04:05"

// Defaults used when extraction finds nothing.
const (
	UnknownSender = "Unknown Sender"
	NoEmail       = "N/A"
	NoSubject     = "No Subject"
)

// NoReplySentinel is stored as the draft reply for emails that need none.
const NoReplySentinel = "No reply needed for this category."

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
	StatusOnHold     Status = "On Hold"
)

// Statuses in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusDone, StatusOnHold}

// ParseStatus validates a user supplied status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Columns is the persisted column order of the processed email table.
var Columns = []string{
	"ID", "Date", "Name", "Email", "Subject", "Category",
	"Priority", "Status", "Remarks", "Draft Reply", "Original Email",
}

// ProcessedEmail is one row of the processed email table.
type ProcessedEmail struct {
	ID            int      `json:"id"`
	Date          string   `json:"date"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Subject       string   `json:"subject"`
	Category      string   `json:"category"`
	Priority      Priority `json:"priority"`
	Status        Status   `json:"status"`
	Remarks       string   `json:"remarks"`
	DraftReply    string   `json:"draft_reply"`
	OriginalEmail string   `json:"original_email,omitempty"`
}

func NewProcessedEmail(id int, name, email, subject, category, draftReply, original string, now time.Time) *ProcessedEmail {
	return &ProcessedEmail{
		ID:            id,
		Date:          now.Format(DateLayout),
		Name:          name,
		Email:         email,
		Subject:       subject,
		Category:      category,
		Priority:      PriorityOf(category),
		Status:        StatusPending,
		Remarks:       "Auto-classified as " + category,
		DraftReply:    draftReply,
		OriginalEmail: original,
	}
}

// Record renders the row in Columns order.
func (e *ProcessedEmail) Record() []string {
	return []string{
		itoa(e.ID), e.Date, e.Name, e.Email, e.Subject, e.Category,
		string(e.Priority), string(e.Status), e.Remarks, e.DraftReply, e.OriginalEmail,
	}
}

// HasReply reports whether the row carries a generated reply.
func (e *ProcessedEmail) HasReply() bool {
	return e.DraftReply != "" && e.DraftReply != NoReplySentinel
}

// CanReply reports whether a reply can be sent: there is an address and a reply.
func (e *ProcessedEmail) CanReply() bool {
	return e.Email != "" && e.Email != NoEmail && e.HasReply()
}

// ParsedDate returns the row date, or the zero time if it does not parse.
func (e *ProcessedEmail) ParsedDate() time.Time {
	t, err := time.ParseInLocation(DateLayout, e.Date, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Clone returns a copy of the row.
func (e *ProcessedEmail) Clone() *ProcessedEmail {
	c := *e
	return &c
}

// NextID returns 1 + the largest ID in rows, or 1 for an empty table.
func NextID(rows []*ProcessedEmail) int {
	max := 0
	for _, r := range rows {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// NormalizeNewlines turns CRLF line endings into LF. Stored text is LF only;
// CSV readers fold CRLF inside quoted fields.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
