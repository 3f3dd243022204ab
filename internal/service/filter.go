package service

import (
	"sort"
	"strings"

	"mailtriage/internal/model"
)

// Action groups accepted in Filter.Group.
const (
	GroupAll        = "all"
	GroupPending    = "pending"
	GroupInProgress = "in_progress"
	GroupCompleted  = "completed"
)

// Filter narrows the table. Empty fields and "All" match everything.
type Filter struct {
	Status   string `query:"status" form:"status" json:"status"`
	Category string `query:"category" form:"category" json:"category"`
	Priority string `query:"priority" form:"priority" json:"priority"`
	// Date is a day in YYYY-MM-DD form.
	Date   string `query:"date" form:"date" json:"date"`
	Search string `query:"q" form:"q" json:"q"`
	Group  string `query:"group" form:"group" json:"group"`
}

func isAny(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func (f Filter) Match(e *model.ProcessedEmail) bool {
	if !isAny(f.Status) && string(e.Status) != f.Status {
		return false
	}
	if !isAny(f.Category) && e.Category != f.Category {
		return false
	}
	if !isAny(f.Priority) && string(e.Priority) != f.Priority {
		return false
	}
	if f.Date != "" {
		d := e.ParsedDate()
		if d.IsZero() || d.Format("2006-01-02") != f.Date {
			return false
		}
	}
	switch strings.ToLower(f.Group) {
	case GroupPending:
		if e.Status != model.StatusPending && e.Status != model.StatusInProgress {
			return false
		}
	case GroupInProgress:
		if e.Status != model.StatusInProgress {
			return false
		}
	case GroupCompleted:
		if e.Status != model.StatusDone {
			return false
		}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = strings.ToLower(q)
		hit := false
		for _, field := range []string{e.Name, e.Email, e.Subject, e.Remarks} {
			if strings.Contains(strings.ToLower(field), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (f Filter) Apply(rows []*model.ProcessedEmail) []*model.ProcessedEmail {
	out := make([]*model.ProcessedEmail, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortByPriority orders rows High, Medium, Low, unknown, newest first within
// each priority. The sort is stable.
func SortByPriority(rows []*model.ProcessedEmail) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Priority.Rank(), rows[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return rows[i].ParsedDate().After(rows[j].ParsedDate())
	})
}
