package index

import (
	"iter"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/teamcutter/linebrew/internal/domain"
)

// Search yields the records whose name or description contains query, case
// insensitively, in their original order. The sequence can be ranged over
// any number of times and never modifies records.
func Search(records []domain.FormulaRecord, query string) iter.Seq[domain.FormulaRecord] {
	q := strings.ToLower(strings.TrimSpace(query))

	return func(yield func(domain.FormulaRecord) bool) {
		for _, r := range records {
			if q != "" && !matches(r, q) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func matches(r domain.FormulaRecord, q string) bool {
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Description), q)
}

// ByRelevance orders search hits: exact name match first, then name
// prefixes, then everything else alphabetically.
func ByRelevance(records []domain.FormulaRecord, query string) []domain.FormulaRecord {
	query = strings.ToLower(query)
	out := slices.Clone(records)

	slices.SortStableFunc(out, func(a, b domain.FormulaRecord) int {
		nameA := strings.ToLower(a.Name)
		nameB := strings.ToLower(b.Name)

		if (nameA == query) != (nameB == query) {
			if nameA == query {
				return -1
			}
			return 1
		}

		if strings.HasPrefix(nameA, query) != strings.HasPrefix(nameB, query) {
			if strings.HasPrefix(nameA, query) {
				return -1
			}
			return 1
		}

		return compareNames(a, b)
	})

	return out
}

type nameSource []domain.FormulaRecord

func (s nameSource) String(i int) string { return s[i].Name }
func (s nameSource) Len() int            { return len(s) }

// Rank orders records by fuzzy match score of their names against query,
// dropping records that do not match at all.
func Rank(records []domain.FormulaRecord, query string) []domain.FormulaRecord {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(records)
	}

	found := fuzzy.FindFrom(query, nameSource(records))
	out := make([]domain.FormulaRecord, 0, len(found))
	for _, m := range found {
		out = append(out, records[m.Index])
	}
	return out
}
