package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	showDocPrefix   = "show:doc:"
	showTitleIndex  = "show:idx:title:"
	showSequenceKey = "show:seq"
)

var _ ShowRepository = (*DocumentShowRepository)(nil)

// showDocument is the persisted form of a show. Seq records insertion order,
// which Badger's key order (by UUID) does not preserve.
type showDocument struct {
	showFields
	TitleKey string `json:"title_key"`
	Seq      uint64 `json:"seq"`
}

// DocumentShowRepository stores shows as JSON documents in Badger. The title
// index key is read and written in the same transaction as the document, so
// of two concurrent inserts for one title only the first commit succeeds.
type DocumentShowRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewDocumentShowRepository opens a Badger database at path. An empty path
// opens an in-memory database.
func NewDocumentShowRepository(path string) (*DocumentShowRepository, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(showSequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open show sequence: %w", err)
	}

	return &DocumentShowRepository{db: db, seq: seq}, nil
}

func (r *DocumentShowRepository) Exists(ctx context.Context, title string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(showTitleIndex + TitleKey(title)))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check title index: %w", err)
	}
	return true, nil
}

func (r *DocumentShowRepository) Insert(ctx context.Context, show *Show) (*Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq, err := r.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate show sequence: %w", err)
	}

	doc := showDocument{
		showFields: showFields(*show),
		TitleKey:   TitleKey(show.Title),
		Seq:        seq,
	}
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal show: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		indexKey := []byte(showTitleIndex + doc.TitleKey)
		_, err := txn.Get(indexKey)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check title index: %w", err)
		}

		if err := txn.Set([]byte(showDocPrefix+doc.ID), data); err != nil {
			return fmt.Errorf("failed to set show document: %w", err)
		}
		if err := txn.Set(indexKey, []byte(doc.ID)); err != nil {
			return fmt.Errorf("failed to set title index: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrConflict) || errors.Is(err, badger.ErrConflict) {
		return nil, fmt.Errorf("show %q: %w", show.Title, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert show: %w", err)
	}

	stored := Show(doc.showFields)
	return &stored, nil
}

func (r *DocumentShowRepository) ListAll(ctx context.Context) ([]Show, error) {
	docs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return toShows(docs), nil
}

func (r *DocumentShowRepository) ListTopByPopularity(ctx context.Context, limit int) ([]Show, error) {
	if limit <= 0 {
		return []Show{}, nil
	}

	docs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	// docs is in insertion order; a stable sort keeps it for equal popularity.
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Popularity > docs[j].Popularity
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return toShows(docs), nil
}

func (r *DocumentShowRepository) GetByID(ctx context.Context, id string) (*Show, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc showDocument
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(showDocPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}

	show := Show(doc.showFields)
	return &show, nil
}

func (r *DocumentShowRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(showDocPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count shows: %w", err)
	}
	return count, nil
}

func (r *DocumentShowRepository) Close() error {
	if err := r.seq.Release(); err != nil {
		r.db.Close()
		return fmt.Errorf("failed to release show sequence: %w", err)
	}
	return r.db.Close()
}

func (r *DocumentShowRepository) loadAll(ctx context.Context) ([]showDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []showDocument
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(showDocPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var doc showDocument
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal show %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Seq < docs[j].Seq
	})
	return docs, nil
}

func toShows(docs []showDocument) []Show {
	shows := make([]Show, len(docs))
	for i, doc := range docs {
		shows[i] = Show(doc.showFields)
	}
	return shows
}
