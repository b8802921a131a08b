// Package tasks owns the in-memory task collection and every mutation
// on it. The store is the single writer: the UI calls its operations
// and re-renders, persistence runs best-effort after each mutation and
// never surfaces errors back to the caller.
package tasks

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"korobochka/internal/normalize"
)

// Fallback store keys shared with earlier versions of the app.
const (
	keySnapshots = "subcategoryActiveSnapshots"
	keyCollapsed = "collapsedCategories"
	keyRegistry  = "customSubcategories"
)

// Persister stores the full task collection. Implemented by
// storage.Adapter; saves are full-replace, loads fail soft.
type Persister interface {
	LoadAllTasks() ([]Task, error)
	SaveAllTasks([]Task) error
}

// KV is the fallback key-value surface used for the registry, the
// bulk-toggle snapshots and collapsed-category UI state.
type KV interface {
	GetJSON(key string, into any) (bool, error)
	PutJSON(key string, value any) error
}

// Store holds the authoritative in-memory collection.
type Store struct {
	persister Persister
	kv        KV
	log       hclog.Logger
	tasks     []Task
	now       func() time.Time
}

func NewStore(p Persister, kv KV, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{persister: p, kv: kv, log: log, now: time.Now}
}

// Load populates the store from the persistence adapter and repairs
// schema drift left behind by older versions: task text is sanitized,
// invalid categories coerce to 0, and mandatory-category subcategories
// are rewritten to their canonical keys (or dropped when normalization
// yields nothing). The repair is idempotent; the repaired collection is
// persisted once at the end.
func (s *Store) Load() []Task {
	list, err := s.persister.LoadAllTasks()
	if err != nil {
		s.log.Warn("task load failed, starting empty", "error", err)
		list = nil
	}
	for i := range list {
		list[i].Text = normalize.Text(list[i].Text)
		list[i].Category = normalize.CoerceCategory(list[i].Category)
		if list[i].Category == normalize.CategoryMandatory && strings.TrimSpace(list[i].Subcategory) != "" {
			list[i].Subcategory = normalize.SubcategoryKey(normalize.CategoryMandatory, list[i].Subcategory)
		}
	}
	s.tasks = list
	s.sanitizeRegistry()
	s.persist()
	return s.Tasks()
}

// Tasks returns a copy of the collection; callers never mutate the
// store's slice directly.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Len() int { return len(s.tasks) }

// NextID is max(existing ids)+1. Deleted ids leave gaps and are never
// reused below the current max.
func (s *Store) NextID() int {
	maxID := 0
	for _, t := range s.tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// AddLines creates one active task per non-blank line. Blank lines are
// skipped without consuming an id. The subcategory, when given, is
// normalized and dropped if normalization yields nothing. Returns the
// number of tasks created; the collection is persisted once.
func (s *Store) AddLines(lines []string, category int, subcategory string) int {
	category = normalize.CoerceCategory(category)
	sub := normalize.SubcategoryKey(category, subcategory)
	added := 0
	for _, raw := range lines {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		t := Task{
			ID:              s.NextID(),
			Text:            text,
			Category:        category,
			Active:          true,
			StatusChangedAt: s.nowMillis(),
		}
		if sub != "" {
			t.Subcategory = sub
		}
		s.tasks = append(s.tasks, t)
		added++
	}
	if added > 0 {
		s.persist()
	}
	return added
}

// ChangeCategory moves a task. An explicitly chosen subcategory is kept
// (trimmed) regardless of the category change; otherwise an actual
// category change clears the subcategory. A task that was sitting
// inactive in category 0 auto-activates when classified into any other
// category so it resurfaces as actionable.
func (s *Store) ChangeCategory(id, newCategory int, newSubcategory string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	t := &s.tasks[i]
	prevCategory := t.Category
	wasActive := t.Active
	t.Category = newCategory
	if sub := strings.TrimSpace(newSubcategory); sub != "" {
		t.Subcategory = sub
	} else if prevCategory != newCategory {
		t.Subcategory = ""
	}
	if prevCategory == normalize.CategoryNone && newCategory != normalize.CategoryNone && !t.Active {
		t.Active = true
	}
	if !wasActive && t.Active {
		t.StatusChangedAt = s.nowMillis()
	}
	s.persist()
}

// EditText replaces a task's text; empty input after trimming is a no-op.
func (s *Store) EditText(id int, text string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" || text == s.tasks[i].Text {
		return
	}
	s.tasks[i].Text = text
	s.persist()
}

// ToggleActive flips a task's active flag and stamps StatusChangedAt.
func (s *Store) ToggleActive(id int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.tasks[i].Active = !s.tasks[i].Active
	s.tasks[i].StatusChangedAt = s.nowMillis()
	s.persist()
}

// ToggleCategoryActive flips every task in the category at once: if any
// is active all deactivate, otherwise all activate.
func (s *Store) ToggleCategoryActive(category int) {
	hasActive := false
	for _, t := range s.tasks {
		if t.Category == category && t.Active {
			hasActive = true
			break
		}
	}
	now := s.nowMillis()
	for i := range s.tasks {
		if s.tasks[i].Category == category {
			s.tasks[i].Active = !hasActive
			s.tasks[i].StatusChangedAt = now
		}
	}
	s.persist()
}

// Complete marks a task done. Duration is measured from timerStartedAt
// when the zero time is not passed; CompletedDate is the local date.
func (s *Store) Complete(id int, timerStartedAt time.Time) {
	i := s.index(id)
	if i < 0 {
		return
	}
	now := s.now()
	t := &s.tasks[i]
	t.Completed = true
	t.Active = false
	t.StatusChangedAt = now.UnixMilli()
	t.CompletedAt = now.UnixMilli()
	t.Duration = 0
	if !timerStartedAt.IsZero() {
		if d := now.Sub(timerStartedAt); d > 0 {
			t.Duration = d.Milliseconds()
		}
	}
	t.CompletedDate = LocalDate(now)
	s.persist()
}

// ReturnToActive undoes a completion: the task becomes active and the
// completion fields are cleared together.
func (s *Store) ReturnToActive(id int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	t := &s.tasks[i]
	t.Completed = false
	t.Active = true
	t.StatusChangedAt = s.nowMillis()
	t.clearCompletion()
	s.persist()
}

// Delete removes a task unconditionally. Confirmation is the UI's job.
func (s *Store) Delete(id int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persist()
}

// RandomActive picks a uniformly random active, incomplete task from
// the given categories, or nil when none match.
func (s *Store) RandomActive(categories []int) *Task {
	var candidates []Task
	for _, t := range s.tasks {
		if t.Active && !t.Completed && containsInt(categories, t.Category) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	pick := candidates[rand.Intn(len(candidates))]
	return &pick
}

// CountActive counts active, incomplete tasks across the categories.
func (s *Store) CountActive(categories ...int) int {
	n := 0
	for _, t := range s.tasks {
		if t.Active && !t.Completed && containsInt(categories, t.Category) {
			n++
		}
	}
	return n
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id int) (Task, bool) {
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

func (s *Store) index(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nowMillis() int64 { return s.now().UnixMilli() }

// persist writes the full collection through the adapter. Persistence
// is fire-and-forget: failures are logged and the in-memory state stays
// authoritative until the next successful write.
func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveAllTasks(s.Tasks()); err != nil {
		s.log.Warn("persist failed, keeping in-memory state", "error", err)
	}
}

func containsInt(set []int, v int) bool {
	for _, c := range set {
		if c == v {
			return true
		}
	}
	return false
}

// SortForDisplay orders a category/subcategory group for rendering:
// active before inactive, inactive most-recently-deactivated first,
// active oldest-activated first, ties by ascending id. Storage order is
// untouched; this is a display rule only.
func SortForDisplay(list []Task) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Active != b.Active {
			return a.Active
		}
		if !a.Active {
			if a.StatusChangedAt != b.StatusChangedAt {
				return a.StatusChangedAt > b.StatusChangedAt
			}
		} else if a.StatusChangedAt != b.StatusChangedAt {
			return a.StatusChangedAt < b.StatusChangedAt
		}
		return a.ID < b.ID
	})
}

// ExportJSON renders the collection as pretty-printed JSON together
// with a timestamped download file name.
func (s *Store) ExportJSON() ([]byte, string, error) {
	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("korobochka-tasks-%s.json", s.now().Format("2006-01-02-15-04-05"))
	return data, name, nil
}

// ErrInvalidImport rejects an import batch containing an element with
// no text or no category field.
var ErrInvalidImport = fmt.Errorf("import: every task needs text and a category")

// ImportReplaceAll parses an exported JSON array and replaces the whole
// collection with it. The batch is validated up front; any element
// missing text or the category field rejects the import with no
// mutation at all.
func (s *Store) ImportReplaceAll(data []byte) (int, error) {
	var probes []struct {
		Text     string          `json:"text"`
		Category json.RawMessage `json:"category"`
	}
	if err := json.Unmarshal(data, &probes); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	for _, p := range probes {
		if p.Text == "" || len(p.Category) == 0 {
			return 0, ErrInvalidImport
		}
	}
	var list []Task
	if err := json.Unmarshal(data, &list); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	s.tasks = list
	s.persist()
	return len(list), nil
}

// CollapsedCategories returns the persisted set of collapsed category
// ids (UI state, fallback store only).
func (s *Store) CollapsedCategories() map[int]bool {
	var ids []int
	if s.kv != nil {
		if _, err := s.kv.GetJSON(keyCollapsed, &ids); err != nil {
			s.log.Warn("collapsed categories unreadable", "error", err)
		}
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// SetCategoryCollapsed records a category's collapsed state.
func (s *Store) SetCategoryCollapsed(category int, collapsed bool) {
	set := s.CollapsedCategories()
	if collapsed {
		set[category] = true
	} else {
		delete(set, category)
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if s.kv != nil {
		if err := s.kv.PutJSON(keyCollapsed, ids); err != nil {
			s.log.Warn("collapsed categories not saved", "error", err)
		}
	}
}
