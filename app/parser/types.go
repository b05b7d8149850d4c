package parser

import (
	"context"

	"github.com/lysyi3m/iboxtv/app/metadata"
)

// Enricher supplies poster and description for a parsed title.
type Enricher interface {
	Enrich(ctx context.Context, title string) metadata.Metadata
}

var _ Enricher = (*metadata.Client)(nil)
