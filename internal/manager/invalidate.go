package manager

import (
	"slices"

	"github.com/teamcutter/linebrew/internal/domain"
)

// invalidates is the contract between command classes and the categories
// whose contents a successful run of that class can change.
var invalidates = map[domain.CommandClass][]domain.Category{
	domain.ClassInstall: {domain.CategoryInstalled, domain.CategoryAll, domain.CategoryLeaves},
	domain.ClassUninstall: {
		domain.CategoryInstalled, domain.CategoryOutdated, domain.CategoryAll,
		domain.CategoryLeaves, domain.CategoryPinned,
	},
	domain.ClassUpgrade: {
		domain.CategoryInstalled, domain.CategoryOutdated, domain.CategoryAll, domain.CategoryLeaves,
	},
	domain.ClassPin:    {domain.CategoryPinned, domain.CategoryInstalled},
	domain.ClassUnpin:  {domain.CategoryPinned, domain.CategoryInstalled},
	domain.ClassTap:    {domain.CategoryTaps, domain.CategoryAll},
	domain.ClassUntap:  {domain.CategoryTaps, domain.CategoryAll},
	domain.ClassUpdate: {domain.CategoryInstalled, domain.CategoryOutdated, domain.CategoryAll},
}

// Invalidates returns the categories made stale by a successful job of
// class. Read, cleanup and doctor change nothing the catalog shows.
func Invalidates(class domain.CommandClass) []domain.Category {
	return slices.Clone(invalidates[class])
}
