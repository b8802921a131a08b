// Package normalize holds the pure text and category normalization rules
// shared by the task store, the subcategory registry and the UI. All
// functions are total on string input and never panic.
package normalize

import "strings"

// The six fixed categories. 0 doubles as the coercion target for any
// invalid or missing value found in stored data.
const (
	CategoryNone      = 0
	CategoryMandatory = 1
	CategorySecurity  = 2
	CategorySimpleJoy = 3
	CategoryEgoJoy    = 4
	CategoryEasyJoy   = 5

	CategoryCount = 6
)

// Reserved canonical subcategory keys for the mandatory category.
const (
	KeyWork = "work"
	KeyHome = "home"
)

var categoryNames = [CategoryCount]string{
	CategoryNone:      "No category",
	CategoryMandatory: "Mandatory",
	CategorySecurity:  "Security",
	CategorySimpleJoy: "Simple joys",
	CategoryEgoJoy:    "Ego joys",
	CategoryEasyJoy:   "Accessible joys",
}

// Legacy data carries the mandatory subcategories in several spellings;
// they all fold to the two reserved keys.
var mandatoryAliases = map[string]string{
	"work":   KeyWork,
	"работа": KeyWork,
	"rabota": KeyWork,
	"home":   KeyHome,
	"дом":    KeyHome,
	"doma":   KeyHome,
	"house":  KeyHome,
}

var mandatoryLabels = map[string]string{
	KeyWork: "Work",
	KeyHome: "Home",
}

// ValidCategory reports whether c is one of the six fixed categories.
func ValidCategory(c int) bool {
	return c >= 0 && c < CategoryCount
}

// CoerceCategory maps any out-of-range category to CategoryNone.
func CoerceCategory(c int) int {
	if ValidCategory(c) {
		return c
	}
	return CategoryNone
}

// CategoryName returns the display label for a category. Out-of-range
// input falls back to the CategoryNone label.
func CategoryName(c int) string {
	return categoryNames[CoerceCategory(c)]
}

// SubcategoryKey maps a raw subcategory name to its canonical key, or ""
// when the input is empty after trimming. For the mandatory category the
// known aliases fold to the reserved work/home keys; every other category
// keeps the trimmed input as-is.
func SubcategoryKey(category int, raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if category == CategoryMandatory {
		if key, ok := mandatoryAliases[strings.ToLower(name)]; ok {
			return key
		}
	}
	return name
}

// SubcategoryLabel returns the display label for a subcategory key. The
// mandatory category's reserved keys (and their aliases) localize to
// fixed labels; everything else displays as stored.
func SubcategoryLabel(category int, key string) string {
	if key == "" {
		return ""
	}
	if category == CategoryMandatory {
		if canonical, ok := mandatoryAliases[strings.ToLower(strings.TrimSpace(key))]; ok {
			return mandatoryLabels[canonical]
		}
	}
	return key
}

// Old versions saved soft hyphens both literally and as HTML entities.
var textScrubber = strings.NewReplacer(
	"�", "", // replacement character
	"­", "", // soft hyphen
	"&shy;", "",
	"&#173;", "",
	"​", "", // zero-width space
	"\r", " ",
	"\n", " ",
)

// Text sanitizes stored task or subcategory text: drops replacement
// characters, soft hyphens and zero-width spaces, collapses line breaks
// and whitespace runs to single spaces and trims the result.
func Text(raw string) string {
	return strings.Join(strings.Fields(textScrubber.Replace(raw)), " ")
}
