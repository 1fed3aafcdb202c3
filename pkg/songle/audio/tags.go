package audio

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Tags is the subset of embedded tags used to prefill song metadata.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags parses the ID3/MP4/FLAC/OGG tags embedded in an audio file.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, fmt.Errorf("reading tags of %s: %w", path, err)
	}
	return Tags{Title: m.Title(), Artist: m.Artist(), Album: m.Album()}, nil
}
