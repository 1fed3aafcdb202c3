// Package catalog holds the immutable set of songs the daily selection draws from.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/himanishpuri/Songle/pkg/models"
)

// MinSongs is the smallest catalog a day can be drawn from.
const MinSongs = 5

var (
	ErrNotEnoughSongs = errors.New("not enough songs in catalog")
	ErrUnknownSong    = errors.New("unknown song")
	ErrNotFound       = errors.New("song not found")
)

// Catalog is a read-only snapshot. Songs are kept sorted by ascending
// duration with ties broken by id; selection indexes into that order.
type Catalog struct {
	songs  []models.Song
	index  map[string]int
	covers map[string][]byte
}

// New builds a snapshot from songs in any order. The slices and maps are
// copied, so callers may reuse them.
func New(songs []models.Song, covers map[string][]byte) *Catalog {
	sorted := make([]models.Song, len(songs))
	copy(sorted, songs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Duration != sorted[j].Duration {
			return sorted[i].Duration < sorted[j].Duration
		}
		return sorted[i].ID < sorted[j].ID
	})

	index := make(map[string]int, len(sorted))
	for i, s := range sorted {
		index[s.ID] = i
	}

	cv := make(map[string][]byte, len(covers))
	for k, v := range covers {
		cv[k] = v
	}

	return &Catalog{songs: sorted, index: index, covers: cv}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.songs)
}

// Songs returns a copy of the songs in canonical order.
func (c *Catalog) Songs() []models.Song {
	if c == nil {
		return nil
	}
	out := make([]models.Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// IDs returns the song ids in canonical order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.songs))
	for i, s := range c.songs {
		ids[i] = s.ID
	}
	return ids
}

func (c *Catalog) Get(id string) (models.Song, error) {
	if c != nil {
		if i, ok := c.index[id]; ok {
			return c.songs[i], nil
		}
	}
	return models.Song{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (c *Catalog) Duration(id string) (float64, error) {
	if c != nil {
		if i, ok := c.index[id]; ok {
			return c.songs[i].Duration, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSong, id)
}

// Cover returns the image bytes for a cover id.
func (c *Catalog) Cover(coverID string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, ok := c.covers[coverID]
	return data, ok
}
