// Package retrieval keeps user-supplied reference documents and ranks their
// chunks against a query by keyword overlap.
package retrieval

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// SelectAll makes every stored document in scope.
	SelectAll = "all"
	// SelectNone leaves no document in scope; retrieval returns nothing.
	SelectNone = ""

	DefaultChunkSize = 1000
)

type Document struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Chunks  []string  `json:"chunks"`
	AddedAt time.Time `json:"addedAt"`
}

// Store is the in-process document collection. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	docs      []Document
	active    string
	chunkSize int
}

func NewStore(chunkSize int) *Store {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Store{chunkSize: chunkSize}
}

// Add chunks text and stores it as a new document, returning its id.
func (s *Store) Add(name, text string) Document {
	doc := Document{
		ID:      uuid.NewString(),
		Name:    name,
		Chunks:  Chunk(text, s.chunkSize),
		AddedAt: time.Now(),
	}
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
	return doc
}

// Remove deletes a document. Removing the active document clears the
// selection.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.docs, func(d Document) bool { return d.ID == id })
	if i < 0 {
		return false
	}
	s.docs = slices.Delete(s.docs, i, i+1)
	if s.active == id {
		s.active = SelectNone
	}
	return true
}

// Documents lists stored documents in insertion order.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs)
}

// SetActive selects a document id, SelectAll, or SelectNone.
func (s *Store) SetActive(selection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selection != SelectNone && selection != SelectAll &&
		!slices.ContainsFunc(s.docs, func(d Document) bool { return d.ID == selection }) {
		return fmt.Errorf("unknown document %q", selection)
	}
	s.active = selection
	return nil
}

func (s *Store) ActiveSelection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// inScope returns the chunks of the selected documents.
func (s *Store) inScope() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out [][]string
	for _, d := range s.docs {
		if s.active == SelectAll || d.ID == s.active {
			out = append(out, d.Chunks)
		}
	}
	return out
}

// Chunk splits text into pieces of at most size runes.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
