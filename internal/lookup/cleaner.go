// cleaner.go - Medicine name normalisation for lookups

package lookup

import (
	"regexp"
	"strings"
)

var (
	strengthPattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(mg|mcg|ml|g|iu|tablets?|tabs?|capsules?|caps?)\b`)
	unitWordPattern = regexp.MustCompile(`(?i)\b(mg|mcg|ml|g|tablets?|tabs?|capsules?|caps?|syrups?|injections?|inj)\b\.?`)
	digitsPattern   = regexp.MustCompile(`\d+(\.\d+)?`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// CleanMedicineName strips strengths, dosage-form words and stray digits so
// "Paracetamol 650 mg tablet" becomes "Paracetamol"
func CleanMedicineName(name string) string {
	name = strengthPattern.ReplaceAllString(name, " ")
	name = unitWordPattern.ReplaceAllString(name, " ")
	name = digitsPattern.ReplaceAllString(name, " ")
	name = strings.Trim(spacePattern.ReplaceAllString(name, " "), " -/,.")
	return name
}

// nameVariations returns the search variants tried against openFDA, most
// specific first and without duplicates
func nameVariations(name string) []string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return nil
	}

	candidates := []string{name}
	if words := strings.Fields(name); len(words) > 1 {
		candidates = append(candidates, words[0])
	}
	candidates = append(candidates,
		strings.ReplaceAll(name, " ", ""),
		strings.ReplaceAll(name, "-", ""),
	)
	if i := strings.Index(name, "-"); i > 0 {
		candidates = append(candidates, strings.TrimSpace(name[:i]))
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
