package tasks

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"korobochka/internal/normalize"
)

// The registry tracks user-created subcategory names per category,
// independent of whether any task currently references them. It lives
// only in the fallback store, keyed by category-id strings for parity
// with the legacy layout.

// SubcategoryOption is one selectable subcategory: the canonical key
// used for matching and the label shown to the user.
type SubcategoryOption struct {
	Key   string
	Label string
}

// Subcategory labels sort with Russian collation; a good chunk of
// long-lived data is Cyrillic and ASCII-order would scramble it.
var labelCollator = collate.New(language.Russian)

func (s *Store) loadRegistry() map[string][]string {
	reg := map[string][]string{}
	if s.kv != nil {
		if _, err := s.kv.GetJSON(keyRegistry, &reg); err != nil {
			s.log.Warn("subcategory registry unreadable", "error", err)
			reg = map[string][]string{}
		}
	}
	return reg
}

func (s *Store) saveRegistry(reg map[string][]string) {
	if s.kv == nil {
		return
	}
	if err := s.kv.PutJSON(keyRegistry, reg); err != nil {
		s.log.Warn("subcategory registry not saved", "error", err)
	}
}

// AddSubcategory registers a name under the category. Duplicates are
// detected on the canonical key, case-insensitively, so aliases of an
// existing entry never pile up.
func (s *Store) AddSubcategory(category int, name string) {
	name = normalize.Text(name)
	if name == "" {
		return
	}
	reg := s.loadRegistry()
	catKey := strconv.Itoa(category)
	tag := registryTag(category, name)
	for _, existing := range reg[catKey] {
		if registryTag(category, existing) == tag {
			return
		}
	}
	reg[catKey] = append(reg[catKey], name)
	s.saveRegistry(reg)
}

// RenameSubcategory renames a registry entry and rewrites the
// subcategory on every task in the category that matches the old stored
// string exactly (tasks historically keep the pre-normalization form).
func (s *Store) RenameSubcategory(category int, oldName, newName string) {
	newName = normalize.Text(newName)
	if newName == "" {
		return
	}
	reg := s.loadRegistry()
	catKey := strconv.Itoa(category)
	names := reg[catKey]
	replaced := false
	for i, n := range names {
		if n == oldName {
			names[i] = newName
			replaced = true
			break
		}
	}
	if !replaced && !containsString(names, newName) {
		names = append(names, newName)
	}
	reg[catKey] = dedupeStrings(names)
	s.saveRegistry(reg)

	for i := range s.tasks {
		if s.tasks[i].Category == category && s.tasks[i].Subcategory == oldName {
			s.tasks[i].Subcategory = newName
		}
	}
	s.persist()
}

// RemoveSubcategory drops a registry entry and clears the subcategory
// on every task referencing it. Tasks themselves stay.
func (s *Store) RemoveSubcategory(category int, name string) {
	reg := s.loadRegistry()
	catKey := strconv.Itoa(category)
	kept := reg[catKey][:0]
	for _, n := range reg[catKey] {
		if n != name {
			kept = append(kept, n)
		}
	}
	reg[catKey] = kept
	s.saveRegistry(reg)

	for i := range s.tasks {
		if s.tasks[i].Category == category && s.tasks[i].Subcategory == name {
			s.tasks[i].Subcategory = ""
		}
	}
	s.persist()
}

// MoveSubcategory re-categorizes every task matching category+name to
// the target category and optional target subcategory.
func (s *Store) MoveSubcategory(category int, name string, targetCategory int, targetSubcategory string) {
	now := s.nowMillis()
	for i := range s.tasks {
		if s.tasks[i].Category == category && s.tasks[i].Subcategory == name {
			s.tasks[i].Category = targetCategory
			s.tasks[i].Subcategory = strings.TrimSpace(targetSubcategory)
			s.tasks[i].StatusChangedAt = now
		}
	}
	s.persist()
}

// ListSubcategories returns the union of subcategory values observed on
// the category's tasks and registered-but-unused names, de-duplicated
// on canonical key and sorted by display label with locale collation.
func (s *Store) ListSubcategories(category int) []SubcategoryOption {
	seen := map[string]bool{}
	var options []SubcategoryOption

	appendName := func(raw string) {
		key := normalize.SubcategoryKey(category, raw)
		if key == "" {
			key = strings.TrimSpace(raw)
		}
		if key == "" {
			return
		}
		tag := strings.ToLower(key)
		if seen[tag] {
			return
		}
		seen[tag] = true
		options = append(options, SubcategoryOption{
			Key:   key,
			Label: normalize.SubcategoryLabel(category, key),
		})
	}

	for _, t := range s.tasks {
		if t.Category == category && strings.TrimSpace(t.Subcategory) != "" {
			appendName(t.Subcategory)
		}
	}
	reg := s.loadRegistry()
	for _, n := range reg[strconv.Itoa(category)] {
		appendName(n)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return labelCollator.CompareString(options[i].Label, options[j].Label) < 0
	})
	return options
}

// sanitizeRegistry is the load-time repair for the registry: every
// stored name runs through text sanitization, and mandatory-category
// entries that normalize to the reserved work/home keys are removed —
// those are built in, not user-defined.
func (s *Store) sanitizeRegistry() {
	if s.kv == nil {
		return
	}
	reg := s.loadRegistry()
	if len(reg) == 0 {
		return
	}
	changed := false
	for catKey, names := range reg {
		category, err := strconv.Atoi(catKey)
		if err != nil {
			continue
		}
		cleaned := make([]string, 0, len(names))
		seen := map[string]bool{}
		for _, raw := range names {
			n := normalize.Text(raw)
			if n == "" {
				changed = true
				continue
			}
			if category == normalize.CategoryMandatory {
				key := normalize.SubcategoryKey(category, n)
				if key == normalize.KeyWork || key == normalize.KeyHome {
					changed = true
					continue
				}
			}
			tag := registryTag(category, n)
			if seen[tag] {
				changed = true
				continue
			}
			seen[tag] = true
			if n != raw {
				changed = true
			}
			cleaned = append(cleaned, n)
		}
		reg[catKey] = cleaned
	}
	if changed {
		s.saveRegistry(reg)
	}
}

func registryTag(category int, name string) string {
	key := normalize.SubcategoryKey(category, name)
	if key == "" {
		key = strings.TrimSpace(name)
	}
	return strings.ToLower(key)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func dedupeStrings(list []string) []string {
	seen := map[string]bool{}
	out := list[:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
