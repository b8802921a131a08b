package tasks

import (
	"sort"
	"strings"
	"time"

	"korobochka/internal/normalize"
)

// The activity ledger is a read-only projection of the store filtered
// by completion date, plus two conveniences the daily view needs: undo
// and direct insertion of a backdated record.

// DayGroup is the completed work of one category on one date.
type DayGroup struct {
	Category int
	Tasks    []Task
}

// CompletedOn returns the tasks completed on the given local date
// (YYYY-MM-DD), grouped by ascending category id.
func (s *Store) CompletedOn(date string) []DayGroup {
	byCategory := map[int][]Task{}
	for _, t := range s.tasks {
		if t.Completed && t.CompletedDate == date {
			byCategory[t.Category] = append(byCategory[t.Category], t)
		}
	}
	categories := make([]int, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Ints(categories)
	groups := make([]DayGroup, 0, len(categories))
	for _, c := range categories {
		groups = append(groups, DayGroup{Category: c, Tasks: byCategory[c]})
	}
	return groups
}

// CompletedCountOn counts completions on a date, for calendar badges.
func (s *Store) CompletedCountOn(date string) int {
	n := 0
	for _, t := range s.tasks {
		if t.Completed && t.CompletedDate == date {
			n++
		}
	}
	return n
}

// DurationMinutes derives the minutes spent on a completed task; 0
// means no time was recorded.
func DurationMinutes(t Task) int {
	return int((t.Duration + 30000) / 60000)
}

// UndoComplete returns a completed task to the active list; identical
// to ReturnToActive, re-exposed under the name the daily view uses.
func (s *Store) UndoComplete(id int) {
	s.ReturnToActive(id)
}

// AddHistorical inserts a completed task backdated to the given date
// with a user-specified duration in minutes, bypassing the timer. The
// completion timestamp lands at noon of that day to stay inside the
// date regardless of timezone arithmetic. Returns false when the text
// is empty after trimming or the duration is not positive.
func (s *Store) AddHistorical(text string, category int, date time.Time, minutes int) bool {
	text = strings.TrimSpace(text)
	if text == "" || minutes <= 0 {
		return false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	t := Task{
		ID:              s.NextID(),
		Text:            text,
		Category:        normalize.CoerceCategory(category),
		Completed:       true,
		Active:          false,
		CompletedAt:     day.Add(12 * time.Hour).UnixMilli(),
		Duration:        int64(minutes) * 60000,
		CompletedDate:   LocalDate(day),
		StatusChangedAt: s.nowMillis(),
	}
	s.tasks = append(s.tasks, t)
	s.persist()
	return true
}
