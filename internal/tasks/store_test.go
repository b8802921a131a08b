package tasks

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakePersister struct {
	loaded  []Task
	loadErr error
	saves   int
	last    []Task
	saveErr error
}

func (f *fakePersister) LoadAllTasks() ([]Task, error) {
	return f.loaded, f.loadErr
}

func (f *fakePersister) SaveAllTasks(list []Task) error {
	f.saves++
	f.last = list
	return f.saveErr
}

type fakeKV struct {
	data map[string]json.RawMessage
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]json.RawMessage{}}
}

func (f *fakeKV) GetJSON(key string, into any) (bool, error) {
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, into)
}

func (f *fakeKV) PutJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func newTestStore(t *testing.T, initial []Task) (*Store, *fakePersister) {
	t.Helper()
	p := &fakePersister{loaded: initial}
	s := NewStore(p, newFakeKV(), nil)
	s.Load()
	return s, p
}

func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	for _, task := range s.Tasks() {
		if task.Completed && task.Active {
			t.Fatalf("task %d is completed and active", task.ID)
		}
		if task.Category < 0 || task.Category > 5 {
			t.Fatalf("task %d has category %d", task.ID, task.Category)
		}
	}
}

func TestAddLinesSkipsBlanks(t *testing.T) {
	s, p := newTestStore(t, nil)
	savesBefore := p.saves

	added := s.AddLines([]string{"Buy milk", "", "  Call mom  "}, 3, "")
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	list := s.Tasks()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Text != "Buy milk" || list[1].Text != "Call mom" {
		t.Fatalf("texts = %q, %q", list[0].Text, list[1].Text)
	}
	if list[1].ID != list[0].ID+1 {
		t.Fatalf("ids not consecutive: %d, %d", list[0].ID, list[1].ID)
	}
	for _, task := range list {
		if !task.Active || task.Completed || task.Category != 3 {
			t.Fatalf("unexpected task state: %+v", task)
		}
	}
	if p.saves != savesBefore+1 {
		t.Fatalf("persisted %d times, want once", p.saves-savesBefore)
	}
	checkInvariants(t, s)
}

func TestAddLinesDropsUnnormalizableSubcategory(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.AddLines([]string{"task"}, 2, "   ")
	if got := s.Tasks()[0].Subcategory; got != "" {
		t.Fatalf("subcategory = %q, want empty", got)
	}
}

func TestNextIDNeverReusedBelowMax(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Active: true},
		{ID: 2, Text: "b", Active: true},
		{ID: 5, Text: "c", Active: true},
	})
	if got := s.NextID(); got != 6 {
		t.Fatalf("NextID = %d, want 6", got)
	}
	s.Delete(5)
	if got := s.NextID(); got != 3 {
		t.Fatalf("NextID after delete = %d, want 3", got)
	}
	s.AddLines([]string{"d"}, 0, "")
	list := s.Tasks()
	if list[len(list)-1].ID != 3 {
		t.Fatalf("new id = %d, want 3", list[len(list)-1].ID)
	}
}

func TestCompleteAndReturn(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 5, Text: "focus", Category: 1, Active: true}})
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Complete(5, now.Add(-2*time.Minute))
	got, _ := s.Get(5)
	if !got.Completed || got.Active {
		t.Fatalf("state after complete: %+v", got)
	}
	if got.Duration != 120000 {
		t.Fatalf("duration = %d, want 120000", got.Duration)
	}
	if got.CompletedDate != LocalDate(now) {
		t.Fatalf("completedDate = %q, want %q", got.CompletedDate, LocalDate(now))
	}
	if got.CompletedAt != now.UnixMilli() {
		t.Fatalf("completedAt = %d", got.CompletedAt)
	}
	checkInvariants(t, s)

	s.ReturnToActive(5)
	got, _ = s.Get(5)
	if got.Completed || !got.Active {
		t.Fatalf("state after return: %+v", got)
	}
	if got.CompletedAt != 0 || got.Duration != 0 || got.CompletedDate != "" {
		t.Fatalf("completion fields not cleared: %+v", got)
	}
}

func TestCompleteWithoutTimerHasZeroDuration(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Active: true}})
	s.Complete(1, time.Time{})
	got, _ := s.Get(1)
	if got.Duration != 0 {
		t.Fatalf("duration = %d, want 0", got.Duration)
	}
}

func TestChangeCategoryAutoActivatesFromUndefined(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Category: 0, Active: false}})
	s.ChangeCategory(1, 2, "")
	got, _ := s.Get(1)
	if !got.Active {
		t.Fatal("task not auto-activated when leaving category 0")
	}
	if got.Subcategory != "" {
		t.Fatalf("subcategory = %q, want empty", got.Subcategory)
	}
}

func TestChangeCategorySameCategoryKeepsSubcategory(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Category: 2, Subcategory: "garden", Active: true}})
	s.ChangeCategory(1, 2, "")
	got, _ := s.Get(1)
	if got.Subcategory != "garden" {
		t.Fatalf("same-category move cleared subcategory: %q", got.Subcategory)
	}
}

func TestChangeCategoryCrossCategoryClearsSubcategory(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Category: 2, Subcategory: "garden", Active: true}})
	s.ChangeCategory(1, 3, "")
	got, _ := s.Get(1)
	if got.Subcategory != "" {
		t.Fatalf("cross-category move kept subcategory: %q", got.Subcategory)
	}
}

func TestChangeCategoryExplicitSubcategoryWins(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Category: 2, Subcategory: "garden", Active: true}})
	s.ChangeCategory(1, 4, "  books  ")
	got, _ := s.Get(1)
	if got.Subcategory != "books" {
		t.Fatalf("subcategory = %q, want books", got.Subcategory)
	}
}

func TestChangeCategoryUnknownIDIsNoop(t *testing.T) {
	s, p := newTestStore(t, []Task{{ID: 1, Text: "x", Active: true}})
	savesBefore := p.saves
	s.ChangeCategory(99, 3, "")
	if p.saves != savesBefore {
		t.Fatal("no-op mutation persisted")
	}
}

func TestToggleActiveStampsStatusChange(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Active: true}})
	stamp := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return stamp }
	s.ToggleActive(1)
	got, _ := s.Get(1)
	if got.Active {
		t.Fatal("still active")
	}
	if got.StatusChangedAt != stamp.UnixMilli() {
		t.Fatalf("statusChangedAt = %d", got.StatusChangedAt)
	}
}

func TestToggleCategoryActive(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 2, Active: true},
		{ID: 2, Text: "b", Category: 2, Active: false},
		{ID: 3, Text: "c", Category: 3, Active: true},
	})
	s.ToggleCategoryActive(2)
	for _, id := range []int{1, 2} {
		if got, _ := s.Get(id); got.Active {
			t.Fatalf("task %d still active", id)
		}
	}
	if got, _ := s.Get(3); !got.Active {
		t.Fatal("other category touched")
	}
	s.ToggleCategoryActive(2)
	for _, id := range []int{1, 2} {
		if got, _ := s.Get(id); !got.Active {
			t.Fatalf("task %d not reactivated", id)
		}
	}
}

func TestToggleSubcategorySnapshotRestoresExactSet(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 1, Subcategory: "work", Active: true},
		{ID: 2, Text: "b", Category: 1, Subcategory: "work", Active: true},
		{ID: 3, Text: "c", Category: 1, Subcategory: "work", Active: true},
	})

	s.ToggleSubcategoryActive(1, "work")
	for _, id := range []int{1, 2, 3} {
		if got, _ := s.Get(id); got.Active {
			t.Fatalf("task %d still active after bulk hide", id)
		}
	}

	// A task added (then hidden) while the group is down is not part of
	// the snapshot and must stay inactive after the restore.
	s.AddLines([]string{"d"}, 1, "work")
	newcomerID := s.Tasks()[3].ID
	s.ToggleActive(newcomerID)

	s.ToggleSubcategoryActive(1, "work")
	for _, id := range []int{1, 2, 3} {
		if got, _ := s.Get(id); !got.Active {
			t.Fatalf("task %d not restored", id)
		}
	}
	if got, _ := s.Get(newcomerID); got.Active {
		t.Fatal("task outside the snapshot was reactivated")
	}
}

func TestToggleSubcategorySnapshotSkipsDeletedIDs(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 1, Subcategory: "work", Active: true},
		{ID: 2, Text: "b", Category: 1, Subcategory: "work", Active: true},
		{ID: 3, Text: "c", Category: 1, Subcategory: "work", Active: true},
	})
	s.ToggleSubcategoryActive(1, "work")
	s.Delete(2)
	s.ToggleSubcategoryActive(1, "work")
	for _, id := range []int{1, 3} {
		if got, _ := s.Get(id); !got.Active {
			t.Fatalf("task %d not restored", id)
		}
	}
}

func TestToggleSubcategoryFallbackActivatesAll(t *testing.T) {
	// No snapshot exists: reactivation falls back to all matching tasks.
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 2, Subcategory: "garden", Active: false},
		{ID: 2, Text: "b", Category: 2, Subcategory: "garden", Active: false},
	})
	s.ToggleSubcategoryActive(2, "garden")
	for _, id := range []int{1, 2} {
		if got, _ := s.Get(id); !got.Active {
			t.Fatalf("task %d not activated by fallback", id)
		}
	}
}

func TestToggleSubcategoryMatchesAliases(t *testing.T) {
	// A legacy record with a Russian alias still belongs to the work group.
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 1, Subcategory: "Работа", Active: true},
		{ID: 2, Text: "b", Category: 1, Subcategory: "work", Active: true},
	})
	s.ToggleSubcategoryActive(1, "work")
	for _, id := range []int{1, 2} {
		if got, _ := s.Get(id); got.Active {
			t.Fatalf("task %d not hidden", id)
		}
	}
}

func TestToggleSubcategoryIgnoresCompleted(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 2, Subcategory: "garden", Active: true},
		{ID: 2, Text: "b", Category: 2, Subcategory: "garden", Completed: true},
	})
	s.ToggleSubcategoryActive(2, "garden")
	if got, _ := s.Get(2); got.Active {
		t.Fatal("completed task activated")
	}
	checkInvariants(t, s)
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Active: true}})
	s.Delete(42)
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestRandomActiveFilters(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 1, Active: true},
		{ID: 2, Text: "b", Category: 1, Active: false},
		{ID: 3, Text: "c", Category: 1, Active: true, Completed: false},
		{ID: 4, Text: "d", Category: 2, Active: true},
	})
	for i := 0; i < 20; i++ {
		picked := s.RandomActive([]int{1})
		if picked == nil {
			t.Fatal("no task picked")
		}
		if picked.ID != 1 && picked.ID != 3 {
			t.Fatalf("picked id %d outside candidate set", picked.ID)
		}
	}
	if picked := s.RandomActive([]int{5}); picked != nil {
		t.Fatalf("picked %+v from empty category", picked)
	}
}

func TestCountActive(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "a", Category: 1, Active: true},
		{ID: 2, Text: "b", Category: 2, Active: true},
		{ID: 3, Text: "c", Category: 2, Active: true, Completed: false},
		{ID: 4, Text: "d", Category: 2, Active: false},
	})
	if got := s.CountActive(1, 2); got != 3 {
		t.Fatalf("CountActive = %d, want 3", got)
	}
}

func TestLoadRepairsLegacyData(t *testing.T) {
	s, _ := newTestStore(t, []Task{
		{ID: 1, Text: "bro­ken​  text", Category: 9, Active: true},
		{ID: 2, Text: "ok", Category: 1, Subcategory: "Работа", Active: true},
	})
	got, _ := s.Get(1)
	if got.Text != "broken text" {
		t.Fatalf("text = %q", got.Text)
	}
	if got.Category != 0 {
		t.Fatalf("category = %d, want 0", got.Category)
	}
	got, _ = s.Get(2)
	if got.Subcategory != "work" {
		t.Fatalf("subcategory = %q, want work", got.Subcategory)
	}
}

func TestLoadRepairIsIdempotent(t *testing.T) {
	p := &fakePersister{loaded: []Task{
		{ID: 1, Text: "a  b", Category: 7, Active: true},
		{ID: 2, Text: "ok", Category: 1, Subcategory: "дом", Active: true},
	}}
	s := NewStore(p, newFakeKV(), nil)
	first := s.Load()

	p2 := &fakePersister{loaded: first}
	s2 := NewStore(p2, newFakeKV(), nil)
	second := s2.Load()

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("task %d changed on second pass: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("disk gone")}
	s := NewStore(p, newFakeKV(), nil)
	if got := s.Load(); len(got) != 0 {
		t.Fatalf("expected empty store, got %d tasks", len(got))
	}
}

func TestImportRejectsMissingCategory(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "keep", Active: true}})
	data := []byte(`[{"id":2,"text":"new","category":3},{"id":3,"text":"bad"}]`)
	if _, err := s.ImportReplaceAll(data); err == nil {
		t.Fatal("import accepted an element without category")
	}
	if s.Len() != 1 {
		t.Fatalf("collection mutated on rejected import: len=%d", s.Len())
	}
	got, _ := s.Get(1)
	if got.Text != "keep" {
		t.Fatal("collection changed")
	}
}

func TestImportRejectsEmptyText(t *testing.T) {
	s, _ := newTestStore(t, nil)
	data := []byte(`[{"id":1,"text":"","category":3}]`)
	if _, err := s.ImportReplaceAll(data); err == nil {
		t.Fatal("import accepted an element without text")
	}
}

func TestImportReplacesWholeCollection(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "old", Active: true}})
	data := []byte(`[{"id":7,"text":"new","category":"2","active":true}]`)
	n, err := s.ImportReplaceAll(data)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if n != 1 || s.Len() != 1 {
		t.Fatalf("n=%d len=%d", n, s.Len())
	}
	got, _ := s.Get(7)
	if got.Text != "new" || got.Category != 2 {
		t.Fatalf("imported task: %+v", got)
	}
}

func TestImportNullCategoryIsDefined(t *testing.T) {
	s, _ := newTestStore(t, nil)
	data := []byte(`[{"id":1,"text":"x","category":null}]`)
	if _, err := s.ImportReplaceAll(data); err != nil {
		t.Fatalf("null category rejected: %v", err)
	}
	got, _ := s.Get(1)
	if got.Category != 0 {
		t.Fatalf("category = %d, want 0", got.Category)
	}
}

func TestSortForDisplay(t *testing.T) {
	list := []Task{
		{ID: 1, Active: false, StatusChangedAt: 100},
		{ID: 2, Active: true, StatusChangedAt: 300},
		{ID: 3, Active: false, StatusChangedAt: 200},
		{ID: 4, Active: true, StatusChangedAt: 50},
		{ID: 5, Active: true, StatusChangedAt: 50},
	}
	SortForDisplay(list)
	wantOrder := []int{4, 5, 2, 3, 1}
	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d (order %v)", i, list[i].ID, want, list)
		}
	}
}

func TestEditText(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "old", Active: true}})
	s.EditText(1, "  new text  ")
	if got, _ := s.Get(1); got.Text != "new text" {
		t.Fatalf("text = %q", got.Text)
	}
	s.EditText(1, "   ")
	if got, _ := s.Get(1); got.Text != "new text" {
		t.Fatal("empty edit applied")
	}
}

func TestExportJSONShape(t *testing.T) {
	s, _ := newTestStore(t, []Task{{ID: 1, Text: "x", Category: 1, Active: true}})
	data, name, err := s.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	var round []Task
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("export not parseable: %v", err)
	}
	if len(round) != 1 || round[0].Text != "x" {
		t.Fatalf("round trip: %+v", round)
	}
	if name == "" || name[len(name)-5:] != ".json" {
		t.Fatalf("file name %q", name)
	}
}

func TestCollapsedCategoriesRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.SetCategoryCollapsed(2, true)
	s.SetCategoryCollapsed(4, true)
	s.SetCategoryCollapsed(2, false)
	set := s.CollapsedCategories()
	if set[2] || !set[4] {
		t.Fatalf("collapsed set: %v", set)
	}
}
