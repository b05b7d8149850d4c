package api

import (
	"context"

	"github.com/lysyi3m/iboxtv/app/database"
	"github.com/lysyi3m/iboxtv/app/ingest"
)

type GeneratorInterface interface {
	Run(shows []database.Show) (string, error)
}

var _ GeneratorInterface = (*RSSGenerator)(nil)

// Ingester runs one on-demand ingestion cycle for GET /fetch.
type Ingester interface {
	Run(ctx context.Context, limit int) (ingest.Result, error)
}

var _ Ingester = (*ingest.Pipeline)(nil)

type Handler struct {
	showRepo   database.ShowRepository
	ingester   Ingester
	generator  GeneratorInterface
	fetchLimit int
}

type StreamStatus struct {
	Downloadable bool `json:"downloadable"`
	Streamable   bool `json:"streamable"`
}
