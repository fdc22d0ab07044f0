// Package store provides the track catalog: per-track identity, genre
// metadata and the raw feature vector. The recommendation engine only reads
// vectors and genre metadata from it; entries are appended or superseded,
// never mutated in place.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/soundalike/soundalike/pkg/feature"
)

// ErrNotFound is returned when a track id is not in the catalog
var ErrNotFound = errors.New("track not found")

// Entry is one track's stored identity
type Entry struct {
	ID      string         `yaml:"id" json:"id"`
	Title   string         `yaml:"title" json:"title"`
	Artist  string         `yaml:"artist" json:"artist"`
	Genres  []string       `yaml:"genres,omitempty" json:"genres,omitempty"`
	Ref     string         `yaml:"ref,omitempty" json:"ref,omitempty"`
	Vector  feature.Vector `yaml:"vector" json:"vector"`
	AddedAt time.Time      `yaml:"added_at" json:"added_at"`
}

// Catalog is a read-only snapshot of the store: entries in insertion order
// plus their vectors as a row-aligned matrix
type Catalog struct {
	Entries []*Entry
	Matrix  [][]float64
}

// Len returns the number of catalog rows
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Store is the track catalog boundary. Appends are not required to be
// visible to reads already in flight, but must be visible to the next
// LoadAll.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Update(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	LoadAll(ctx context.Context) (*Catalog, error)
}
