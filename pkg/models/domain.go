package models

// SongMetadata is the display information for a song as stored in the
// metadata file. The first entry of Names is the display name.
type SongMetadata struct {
	Cover    string   `json:"cover"`
	Link     string   `json:"link"`
	Artists  []string `json:"artists"`
	Acronyms []string `json:"acronyms"`
	Names    []string `json:"names"`
}

// DisplayName returns the first name, falling back to fallback.
func (m SongMetadata) DisplayName(fallback string) string {
	if len(m.Names) > 0 && m.Names[0] != "" {
		return m.Names[0]
	}
	return fallback
}

// Song is a catalog entry: the audio file stem, its probed duration and metadata.
type Song struct {
	ID       string  // audio file name without extension
	Duration float64 // seconds
	SongMetadata
}

// ClueIndex selects one of the three clips served for a song.
type ClueIndex int

const (
	Clue1 ClueIndex = 1 // 0.5s from a random offset
	Clue2 ClueIndex = 2 // 1.0s from a random offset
	Clue3 ClueIndex = 3 // 2.5s from the start of the song
)

const (
	Clue1Length = 0.5
	Clue2Length = 1.0
	Clue3Length = 2.5
)

func (c ClueIndex) Valid() bool {
	return c >= Clue1 && c <= Clue3
}

// SongPick is one song of a day together with its clip offsets in seconds.
// Clue 3 always starts at 0 and is not stored.
type SongPick struct {
	SongID     string  `json:"name"`
	Clue1Start float64 `json:"clue_1_start"`
	Clue2Start float64 `json:"clue_2_start"`
}

// Window returns the [start, end) time range for clue.
func (p SongPick) Window(clue ClueIndex) (start, end float64, ok bool) {
	switch clue {
	case Clue1:
		return p.Clue1Start, p.Clue1Start + Clue1Length, true
	case Clue2:
		return p.Clue2Start, p.Clue2Start + Clue2Length, true
	case Clue3:
		return 0, Clue3Length, true
	}
	return 0, 0, false
}

// DailyAssignment is the persisted, immutable selection for one date.
// DateKey is epoch milliseconds at local midnight and is the storage key,
// so it is not part of the JSON blob.
type DailyAssignment struct {
	DateKey int64      `json:"-"`
	Songs   []SongPick `json:"songs"`
}

// Pick returns the pick for songID, if present.
func (a *DailyAssignment) Pick(songID string) (SongPick, bool) {
	for _, p := range a.Songs {
		if p.SongID == songID {
			return p, true
		}
	}
	return SongPick{}, false
}

// SongIDs returns the picked ids in order.
func (a *DailyAssignment) SongIDs() []string {
	ids := make([]string, len(a.Songs))
	for i, p := range a.Songs {
		ids[i] = p.SongID
	}
	return ids
}
