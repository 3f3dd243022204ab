package repository

import (
	"strconv"
	"strings"
	"time"

	"mailtriage/internal/model"
)

// MigratedRemark is written into Remarks for rows that had no Remarks column.
const MigratedRemark = "Migrated from old format"

// DateLayouts are tried in order when normalizing a stored Date value.
var DateLayouts = []string{
	model.DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var legacyColumns = map[string]string{
	"id":             "ID",
	"date":           "Date",
	"name":           "Name",
	"email":          "Email",
	"subject":        "Subject",
	"category":       "Category",
	"status":         "Status",
	"draft_reply":    "Draft Reply",
	"original_email": "Original Email",
}

// NormalizeDate rewrites s in model.DateLayout. Empty or unparseable values
// become now.
func NormalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Format(model.DateLayout)
	}
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(model.DateLayout)
		}
	}
	return now.Format(model.DateLayout)
}

// IsLegacyHeader reports whether header uses the old lowercase schema.
func IsLegacyHeader(header []string) bool {
	var hasLower, hasUpper bool
	for _, h := range header {
		switch cleanHeader(h) {
		case "id":
			hasLower = true
		case "ID":
			hasUpper = true
		}
	}
	return hasLower && !hasUpper
}

// FromRecords turns a header plus data records into table rows. Legacy
// headers are migrated, missing Priority and Remarks columns synthesized and
// every Date normalized. Columns are matched by name; unknown ones dropped.
func FromRecords(header []string, records [][]string, now time.Time) (rows []*model.ProcessedEmail, migrated bool) {
	migrated = IsLegacyHeader(header)

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := cleanHeader(h)
		if migrated {
			if mapped, ok := legacyColumns[name]; ok {
				name = mapped
			}
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	_, hasPriority := index["Priority"]
	_, hasRemarks := index["Remarks"]

	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rows = make([]*model.ProcessedEmail, 0, len(records))
	renumber := false
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		e := &model.ProcessedEmail{
			Date:          NormalizeDate(get(rec, "Date"), now),
			Name:          get(rec, "Name"),
			Email:         get(rec, "Email"),
			Subject:       get(rec, "Subject"),
			Category:      get(rec, "Category"),
			Priority:      model.Priority(get(rec, "Priority")),
			Status:        model.Status(get(rec, "Status")),
			Remarks:       get(rec, "Remarks"),
			DraftReply:    get(rec, "Draft Reply"),
			OriginalEmail: get(rec, "Original Email"),
		}

		id, err := parseID(get(rec, "ID"))
		if err != nil {
			renumber = true
		}
		e.ID = id

		if !hasPriority || e.Priority == "" {
			e.Priority = priorityFor(e.Category)
		}
		if !hasRemarks {
			e.Remarks = MigratedRemark
		}
		if e.Status == "" {
			e.Status = model.StatusPending
		}
		rows = append(rows, e)
	}

	if renumber {
		for i, r := range rows {
			r.ID = i + 1
		}
	}
	return rows, migrated
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func priorityFor(category string) model.Priority {
	if strings.TrimSpace(category) == "" {
		return model.PriorityLow
	}
	return model.PriorityOf(category)
}

// parseID accepts integers and integral floats such as "3.0", which some
// spreadsheet tools write.
func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ToRecords renders rows in model.Columns order, header first.
func ToRecords(rows []*model.ProcessedEmail) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), model.Columns...))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}
