// Package jsondb stores each collection as a JSON array in <dir>/<collection>.json.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-verify-bot/internal/domain"
)

const keyAttr = "id"

type document = map[string]json.RawMessage

// Store is a file-backed document store. It is safe for concurrent use within one process.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("json database init: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *Store) read(collection string) ([]document, error) {
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return []document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	var docs []document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse collection %s: %w", collection, err)
	}
	return docs, nil
}

// write replaces the collection file atomically.
func (s *Store) write(collection string, docs []document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}

func docID(d document) string {
	var id string
	_ = json.Unmarshal(d[keyAttr], &id)
	return id
}

func toDocument(v interface{}) (document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return d, nil
}

func indexOf(docs []document, id string) int {
	for i, d := range docs {
		if docID(d) == id {
			return i
		}
	}
	return -1
}

// FindAll decodes the whole collection into out, which must point to a slice.
func (s *Store) FindAll(_ context.Context, collection string, out interface{}) error {
	s.mu.Lock()
	docs, err := s.read(collection)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *Store) FindByID(_ context.Context, collection, id string, out interface{}) error {
	s.mu.Lock()
	docs, err := s.read(collection)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	i := indexOf(docs, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", collection, id, domain.ErrNotFound)
	}
	data, err := json.Marshal(docs[i])
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Insert stores doc, replacing any document with the same id.
func (s *Store) Insert(_ context.Context, collection string, doc interface{}) error {
	d, err := toDocument(doc)
	if err != nil {
		return err
	}
	id := docID(d)
	if id == "" {
		return fmt.Errorf("%s document has no %q field: %w", collection, keyAttr, domain.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(collection)
	if err != nil {
		return err
	}
	if i := indexOf(docs, id); i >= 0 {
		docs[i] = d
	} else {
		docs = append(docs, d)
	}
	return s.write(collection, docs)
}

// Update merges patch into an existing document. The id is never changed.
func (s *Store) Update(_ context.Context, collection, id string, patch map[string]interface{}) error {
	p, err := toDocument(patch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(collection)
	if err != nil {
		return err
	}
	i := indexOf(docs, id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", collection, id, domain.ErrNotFound)
	}
	for k, v := range p {
		if k != keyAttr {
			docs[i][k] = v
		}
	}
	return s.write(collection, docs)
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(collection)
	if err != nil {
		return err
	}
	kept := docs[:0]
	for _, d := range docs {
		if docID(d) != id {
			kept = append(kept, d)
		}
	}
	return s.write(collection, kept)
}
