package models

import "fmt"

// StatKey names a statistics counter.
type StatKey string

const (
	StatHomepageView StatKey = "homepage_view"
	StatDayFinished  StatKey = "day_finished"
)

// ClueStatKey is the counter for a song/clue combination.
func ClueStatKey(song, clue string) StatKey {
	return StatKey(fmt.Sprintf("song_%s_clue_%s", song, clue))
}
