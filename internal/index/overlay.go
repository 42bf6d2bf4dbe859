package index

import (
	"slices"

	"github.com/teamcutter/linebrew/internal/domain"
)

// Overlay returns copies of base enriched with whatever the layers know
// about the same names: versions, pinned and leaf flags and descriptive
// fields. Only names present in base are returned and nothing passed in is
// modified. Earlier layers win when two disagree.
func Overlay(base []domain.FormulaRecord, layers ...[]domain.FormulaRecord) []domain.FormulaRecord {
	known := make(map[string]domain.FormulaRecord)
	for _, layer := range layers {
		for _, r := range layer {
			known[r.Name] = merge(known[r.Name], r)
		}
	}

	out := make([]domain.FormulaRecord, len(base))
	for i, r := range base {
		if k, ok := known[r.Name]; ok {
			r = merge(r, k)
		}
		r.Dependencies = slices.Clone(r.Dependencies)
		out[i] = r
	}
	return out
}

// merge fills the empty fields of dst from src and ORs the flags.
func merge(dst, src domain.FormulaRecord) domain.FormulaRecord {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	fill(&dst.InstalledVersion, src.InstalledVersion)
	fill(&dst.LatestVersion, src.LatestVersion)
	fill(&dst.Description, src.Description)
	fill(&dst.Homepage, src.Homepage)
	fill(&dst.License, src.License)
	fill(&dst.Tap, src.Tap)
	fill(&dst.Caveats, src.Caveats)
	if len(dst.Dependencies) == 0 {
		dst.Dependencies = src.Dependencies
	}
	dst.Pinned = dst.Pinned || src.Pinned
	dst.Leaf = dst.Leaf || src.Leaf
	return dst
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}
