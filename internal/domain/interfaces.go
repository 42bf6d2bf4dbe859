package domain

import (
	"context"
)

// Listing is one structured read of a category.
type Listing struct {
	Records  []FormulaRecord
	Taps     []string
	Warnings []ParseWarning
}

type Loader interface {
	Load(ctx context.Context, category Category) (*Listing, error)
}
