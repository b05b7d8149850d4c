package database

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"
)

type Show struct {
	ID            string    `json:"id"` // decimal row id for SQL, UUID for the document store
	Title         string    `json:"title"`
	SeasonEpisode string    `json:"season_episode"`
	DownloadLink  string    `json:"download_link"`
	IsStreamable  bool      `json:"is_streamable"`
	Poster        string    `json:"poster"`
	Description   string    `json:"description"`
	Popularity    int       `json:"popularity"`
	CreatedAt     time.Time `json:"created_at"`
}

// showFields is Show without its JSON methods.
type showFields Show

// MarshalJSON writes numeric ids (the SQL backend) as JSON numbers and any
// other id as a string.
func (s Show) MarshalJSON() ([]byte, error) {
	var id any = s.ID
	if n, err := strconv.ParseInt(s.ID, 10, 64); err == nil {
		id = n
	}

	return json.Marshal(struct {
		ID any `json:"id"`
		showFields
	}{ID: id, showFields: showFields(s)})
}

func (s *Show) UnmarshalJSON(data []byte) error {
	aux := struct {
		ID json.RawMessage `json:"id"`
		*showFields
	}{showFields: (*showFields)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case len(aux.ID) == 0 || bytes.Equal(aux.ID, []byte("null")):
		s.ID = ""
	case aux.ID[0] == '"':
		return json.Unmarshal(aux.ID, &s.ID)
	default:
		s.ID = string(aux.ID)
	}
	return nil
}

// ShowRepository is implemented by every persistence backend. Titles are
// compared case-insensitively and the backend, not the caller, guarantees that
// at most one show exists per title.
type ShowRepository interface {
	Exists(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, show *Show) (*Show, error)
	ListAll(ctx context.Context) ([]Show, error)
	ListTopByPopularity(ctx context.Context, limit int) ([]Show, error)
	GetByID(ctx context.Context, id string) (*Show, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
