package index

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcutter/linebrew/internal/domain"
)

func sample() []domain.FormulaRecord {
	return []domain.FormulaRecord{
		{Name: "wget", Description: "Internet file retriever", InstalledVersion: "1.24.5", LatestVersion: "1.24.5"},
		{Name: "git", Description: "Distributed revision control system", InstalledVersion: "2.44.0", LatestVersion: "2.45.1"},
		{Name: "node", Description: "Platform built on V8", InstalledVersion: "21.0.0", Pinned: true},
		{Name: "curl", Description: "Get a file from an HTTP, HTTPS or FTP server"},
		{Name: "Gitleaks", Description: "Audit git repos for secrets"},
	}
}

func names(records []domain.FormulaRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"wget", "git", "node", "curl", "Gitleaks"}},
		{query: "GIT", want: []string{"git", "Gitleaks"}},
		{query: "file", want: []string{"wget", "curl"}},
		{query: "  v8 ", want: []string{"node"}},
		{query: "zzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := slices.Collect(Search(sample(), tt.query))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSearchIsRestartableAndNonMutating(t *testing.T) {
	records := sample()
	before := slices.Clone(records)
	seq := Search(records, "git")

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, first, second)
	assert.Equal(t, before, records)

	// Early break stops iteration without error.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestSearchLargeCatalog(t *testing.T) {
	records := make([]domain.FormulaRecord, 7000)
	for i := range records {
		records[i] = domain.FormulaRecord{Name: fmt.Sprintf("formula-%04d", i)}
	}

	got := slices.Collect(Search(records, "formula-69"))
	assert.Len(t, got, 100)
}

func TestByRelevance(t *testing.T) {
	records := []domain.FormulaRecord{
		{Name: "libgit2"}, {Name: "git-lfs"}, {Name: "git"}, {Name: "Gitleaks"}, {Name: "bgit"},
	}

	got := ByRelevance(records, "git")
	assert.Equal(t, []string{"git", "git-lfs", "Gitleaks", "bgit", "libgit2"}, names(got))
}

func TestRank(t *testing.T) {
	got := Rank(sample(), "gt")
	require.NotEmpty(t, got)
	assert.Contains(t, names(got), "git")
	assert.NotContains(t, names(got), "curl")

	assert.Len(t, Rank(sample(), ""), len(sample()))
}

func TestSort(t *testing.T) {
	records := append(sample(), domain.FormulaRecord{Name: "aria2", InstalledVersion: "1.0"})

	byName := Sort(records, SortName)
	assert.Equal(t, []string{"aria2", "curl", "git", "Gitleaks", "node", "wget"}, names(byName))

	byStatus := Sort(records, SortStatus)
	assert.Equal(t, []string{"aria2", "wget", "git", "node", "curl", "Gitleaks"}, names(byStatus))

	// The input order is left alone.
	assert.Equal(t, "wget", records[0].Name)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("Status")
	require.NoError(t, err)
	assert.Equal(t, SortStatus, k)

	k, err = ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortName, k)

	_, err = ParseSortKey("size")
	assert.Error(t, err)
}

func TestOverlay(t *testing.T) {
	all := []domain.FormulaRecord{{Name: "curl"}, {Name: "git"}, {Name: "node"}, {Name: "wget"}}
	installed := []domain.FormulaRecord{
		{Name: "git", InstalledVersion: "2.44.0", LatestVersion: "2.44.0", Description: "vcs"},
		{Name: "node", InstalledVersion: "21.0.0"},
		{Name: "jq", InstalledVersion: "1.7"},
	}
	outdated := []domain.FormulaRecord{{Name: "git", InstalledVersion: "2.44.0", LatestVersion: "2.45.1"}}
	pinned := []domain.FormulaRecord{{Name: "node", Pinned: true}}
	leaves := []domain.FormulaRecord{{Name: "git", Leaf: true}}

	got := Overlay(all, outdated, installed, pinned, leaves)

	require.Len(t, got, 4)
	assert.Equal(t, domain.StatusNone, got[0].Status())
	assert.Equal(t, "2.45.1", got[1].LatestVersion)
	assert.Equal(t, "vcs", got[1].Description)
	assert.True(t, got[1].Leaf)
	assert.Equal(t, domain.StatusOutdated, got[1].Status())
	assert.Equal(t, domain.StatusPinned, got[2].Status())
	assert.Equal(t, domain.StatusNone, got[3].Status())

	assert.Equal(t, domain.FormulaRecord{Name: "curl"}, all[0])
	assert.Equal(t, "2.44.0", installed[0].LatestVersion)
}
