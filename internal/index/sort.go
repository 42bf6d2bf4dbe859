package index

import (
	"fmt"
	"slices"
	"strings"

	"github.com/teamcutter/linebrew/internal/domain"
)

type SortKey int

const (
	SortName SortKey = iota
	SortStatus
)

func (k SortKey) String() string {
	if k == SortStatus {
		return "status"
	}
	return "name"
}

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortName, nil
	case "status":
		return SortStatus, nil
	default:
		return SortName, fmt.Errorf("unknown sort key %q (want name or status)", s)
	}
}

// Sort returns a sorted copy of records. Status order is Installed,
// Outdated, Pinned, then everything else; ties always break alphabetically.
func Sort(records []domain.FormulaRecord, key SortKey) []domain.FormulaRecord {
	out := slices.Clone(records)

	slices.SortStableFunc(out, func(a, b domain.FormulaRecord) int {
		if key == SortStatus {
			if c := int(a.Status()) - int(b.Status()); c != 0 {
				return c
			}
		}
		return compareNames(a, b)
	})

	return out
}

func compareNames(a, b domain.FormulaRecord) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
