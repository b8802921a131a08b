package tasks

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"korobochka/internal/normalize"
)

// Task is a single task record. The JSON field names match the records
// written by earlier versions of the app, so legacy fallback blobs and
// old export files load without translation.
type Task struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	Category    int    `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Completed   bool   `json:"completed"`
	Active      bool   `json:"active"`

	// Milliseconds since epoch; StatusChangedAt orders the display,
	// the completion fields are set and cleared together.
	StatusChangedAt int64  `json:"statusChangedAt,omitempty"`
	CompletedAt     int64  `json:"completedAt,omitempty"`
	CompletedDate   string `json:"completedDate,omitempty"`
	Duration        int64  `json:"duration,omitempty"`
}

// UnmarshalJSON is lenient about the schema drift found in old saved
// data: category may be a number, a numeric string or missing, and
// active may be absent or non-boolean. Invalid categories coerce to 0
// and a missing active flag defaults to true.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              int             `json:"id"`
		Text            string          `json:"text"`
		Category        json.RawMessage `json:"category"`
		Subcategory     string          `json:"subcategory"`
		Completed       bool            `json:"completed"`
		Active          *bool           `json:"active"`
		StatusChangedAt int64           `json:"statusChangedAt"`
		CompletedAt     int64           `json:"completedAt"`
		CompletedDate   string          `json:"completedDate"`
		Duration        int64           `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = raw.ID
	t.Text = raw.Text
	t.Category = decodeCategory(raw.Category)
	t.Subcategory = raw.Subcategory
	t.Completed = raw.Completed
	t.Active = raw.Active == nil || *raw.Active
	t.StatusChangedAt = raw.StatusChangedAt
	t.CompletedAt = raw.CompletedAt
	t.CompletedDate = raw.CompletedDate
	t.Duration = raw.Duration
	return nil
}

func decodeCategory(raw json.RawMessage) int {
	if len(raw) == 0 {
		return normalize.CategoryNone
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return normalize.CoerceCategory(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if m, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return normalize.CoerceCategory(m)
		}
	}
	return normalize.CategoryNone
}

// clearCompletion removes the completion triple; kept in one place so
// the fields can never drift apart.
func (t *Task) clearCompletion() {
	t.CompletedAt = 0
	t.CompletedDate = ""
	t.Duration = 0
}

// LocalDate formats ts as the YYYY-MM-DD date in local time, the format
// used by CompletedDate.
func LocalDate(ts time.Time) string {
	return ts.Format("2006-01-02")
}
