package enrich

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// ParseListField splits a delimited list field into trimmed tokens, dropping
// empties. A null or empty field yields an empty token list, not an error.
// Display form is preserved; comparisons fold case separately.
func ParseListField(raw, delimiter string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, delimiter)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// TokensToIndicators maps a token list onto a fixed vocabulary: entry i is 1
// iff vocabulary[i] case-insensitively matches any token.
func TokensToIndicators(tokens, vocabulary []string) []int {
	present := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		present[strings.ToLower(token)] = struct{}{}
	}
	indicators := make([]int, len(vocabulary))
	for i, entry := range vocabulary {
		if _, ok := present[strings.ToLower(entry)]; ok {
			indicators[i] = 1
		}
	}
	return indicators
}

// TopKTokens counts tokens across all rows (case-folded, first-seen display
// form kept) and returns the k most frequent, ties broken by first
// appearance. The order never depends on map iteration; two runs over the
// same data produce identical sequences. k <= 0 returns the full frequency
// table.
func TopKTokens(rowsTokens [][]string, k int) []TokenCount {
	counts := make(map[string]int)
	display := make(map[string]string)
	var order []string

	for _, tokens := range rowsTokens {
		for _, token := range tokens {
			key := strings.ToLower(token)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
				display[key] = token
			}
			counts[key]++
		}
	}

	out := make([]TokenCount, 0, len(order))
	for _, key := range order {
		out = append(out, TokenCount{Token: display[key], Count: counts[key]})
	}
	// stable sort keeps first-seen order among equal counts
	stableSortByCountDesc(out)

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func stableSortByCountDesc(items []TokenCount) {
	// insertion sort is stable and the vocabularies are small
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Count > items[j-1].Count; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// SafeDivide divides without ever panicking or returning an infinity:
// a zero denominator, NaN operand or non-finite result yields def.
func SafeDivide(numerator, denominator, def float64) float64 {
	if denominator == 0 || math.IsNaN(numerator) || math.IsNaN(denominator) {
		return def
	}
	result := numerator / denominator
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return def
	}
	return result
}

// ExperienceToOrdinal resolves a label against the configured rank mapping,
// folding case. The second return reports whether the label was mapped;
// unmapped labels take the caller's sentinel.
func ExperienceToOrdinal(label string, mapping map[string]int) (int, bool) {
	trimmed := strings.TrimSpace(label)
	for key, rank := range mapping {
		if strings.EqualFold(key, trimmed) {
			return rank, true
		}
	}
	return 0, false
}

// ClassifyRegion buckets a state value into "USA" or "International". Only a
// fold-match against the configured US state abbreviations counts as USA;
// anything else, including a null state, is International.
func ClassifyRegion(state string, usStates []string) string {
	trimmed := strings.TrimSpace(state)
	if trimmed == "" {
		return "International"
	}
	for _, abbrev := range usStates {
		if strings.EqualFold(abbrev, trimmed) {
			return "USA"
		}
	}
	return "International"
}

// DateParts is the calendar decomposition of a posting date
type DateParts struct {
	Year       int
	Month      int
	Quarter    int
	DayOfWeek  int // Monday=0 .. Sunday=6
	WeekOfYear int
	IsWeekend  bool
}

// DecomposeDate splits a date into calendar parts
func DecomposeDate(t time.Time) DateParts {
	dow := (int(t.Weekday()) + 6) % 7
	_, week := t.ISOWeek()
	return DateParts{
		Year:       t.Year(),
		Month:      int(t.Month()),
		Quarter:    (int(t.Month())-1)/3 + 1,
		DayOfWeek:  dow,
		WeekOfYear: week,
		IsWeekend:  dow >= 5,
	}
}

// SanitizeColumnName turns a vocabulary token into a stable column suffix:
// lower-cased, spaces to underscores, "+" to "plus", "#" to "sharp".
// "C++" becomes "cplusplus", "Power BI" becomes "power_bi".
func SanitizeColumnName(token string) string {
	replacer := strings.NewReplacer(" ", "_", "+", "plus", "#", "sharp")
	sanitized := replacer.Replace(strings.ToLower(strings.TrimSpace(token)))
	var b strings.Builder
	for _, r := range sanitized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// assignBin places a value into closed-open bins: bin i covers
// [edges[i], edges[i+1]) and the last bin extends to +Inf. Values below the
// first edge or NaN fall outside every bin.
func assignBin(value float64, edges []float64, labels []string) (string, bool) {
	if math.IsNaN(value) || len(edges) == 0 || value < edges[0] {
		return "", false
	}
	for i := len(edges) - 1; i >= 0; i-- {
		if value >= edges[i] {
			return labels[i], true
		}
	}
	return "", false
}

// foldSet builds a case-folded membership set from a lookup list
func foldSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}
	return set
}

// inFoldSet reports whether the folded value is in the set
func inFoldSet(set map[string]struct{}, value string) bool {
	_, ok := set[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// anyTokenIn reports whether any token fold-matches the set
func anyTokenIn(tokens []string, set map[string]struct{}) bool {
	for _, token := range tokens {
		if inFoldSet(set, token) {
			return true
		}
	}
	return false
}

// titleCase capitalizes the first letter of each space-separated word
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
