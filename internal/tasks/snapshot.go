package tasks

import (
	"fmt"
	"strings"

	"korobochka/internal/normalize"
)

// snapshotKey identifies a (category, normalized subcategory) pair. The
// pair is kept structured in memory and only flattened to the legacy
// "cat:{id}|sub:{name}" string form when written to the fallback store.
type snapshotKey struct {
	Category int
	Name     string
}

func (k snapshotKey) String() string {
	return fmt.Sprintf("cat:%d|sub:%s", k.Category, k.Name)
}

func (s *Store) loadSnapshots() map[string][]int {
	snaps := map[string][]int{}
	if s.kv != nil {
		if _, err := s.kv.GetJSON(keySnapshots, &snaps); err != nil {
			s.log.Warn("subcategory snapshots unreadable", "error", err)
			snaps = map[string][]int{}
		}
	}
	return snaps
}

func (s *Store) saveSnapshots(snaps map[string][]int) {
	if s.kv == nil {
		return
	}
	if err := s.kv.PutJSON(keySnapshots, snaps); err != nil {
		s.log.Warn("subcategory snapshots not saved", "error", err)
	}
}

// matchesSubcategory reports whether the task belongs to the category
// and its subcategory normalizes to name. Tasks whose stored value
// fails normalization still match on the trimmed raw string, since old
// records keep pre-normalization forms.
func matchesSubcategory(t Task, category int, name string) bool {
	if t.Category != category {
		return false
	}
	candidate := normalize.SubcategoryKey(category, t.Subcategory)
	if candidate == "" {
		candidate = strings.TrimSpace(t.Subcategory)
	}
	return candidate == name
}

// ToggleSubcategoryActive bulk-toggles every incomplete task in the
// category whose subcategory normalizes to subName.
//
// Hiding records which ids were active so the next toggle restores
// exactly that subset instead of waking the whole group. When no
// snapshot survives (first toggle, or deletions invalidated every saved
// id) the restore falls back to activating all matching tasks — which
// can resurface tasks the user had individually hidden before the bulk
// hide; that fallback is long-standing behavior and is kept as is.
func (s *Store) ToggleSubcategoryActive(category int, subName string) {
	name := normalize.SubcategoryKey(category, subName)
	if name == "" {
		name = strings.TrimSpace(subName)
	}
	if name == "" {
		return
	}

	key := snapshotKey{Category: category, Name: name}.String()
	snaps := s.loadSnapshots()

	var relevant []int // indices into s.tasks
	for i, t := range s.tasks {
		if !t.Completed && matchesSubcategory(t, category, name) {
			relevant = append(relevant, i)
		}
	}
	if len(relevant) == 0 {
		if _, ok := snaps[key]; ok {
			delete(snaps, key)
			s.saveSnapshots(snaps)
		}
		return
	}

	now := s.nowMillis()
	hasActive := false
	for _, i := range relevant {
		if s.tasks[i].Active {
			hasActive = true
			break
		}
	}

	if hasActive {
		var activeIDs []int
		for _, i := range relevant {
			if s.tasks[i].Active {
				activeIDs = append(activeIDs, s.tasks[i].ID)
				s.tasks[i].Active = false
				s.tasks[i].StatusChangedAt = now
			}
		}
		snaps[key] = activeIDs
	} else {
		existing := make(map[int]bool, len(relevant))
		for _, i := range relevant {
			existing[s.tasks[i].ID] = true
		}
		var restoreIDs []int
		for _, id := range snaps[key] {
			if existing[id] {
				restoreIDs = append(restoreIDs, id)
			}
		}
		if len(restoreIDs) == 0 {
			for _, i := range relevant {
				restoreIDs = append(restoreIDs, s.tasks[i].ID)
			}
		}
		restore := make(map[int]bool, len(restoreIDs))
		for _, id := range restoreIDs {
			restore[id] = true
		}
		snaps[key] = restoreIDs
		for _, i := range relevant {
			shouldBeActive := restore[s.tasks[i].ID]
			if s.tasks[i].Active != shouldBeActive {
				s.tasks[i].Active = shouldBeActive
				s.tasks[i].StatusChangedAt = now
			}
		}
	}

	s.saveSnapshots(snaps)
	s.persist()
}
