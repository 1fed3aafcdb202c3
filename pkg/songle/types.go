package songle

import "errors"

var ErrInvalidDate = errors.New("invalid date")

// StartInfo describes the game calendar.
type StartInfo struct {
	Start           int64 `json:"start"`         // first day, epoch ms at local midnight
	Today           int64 `json:"today"`         // current day, epoch ms at local midnight
	Days            int   `json:"days"`          // days played including today
	TZOffsetMinutes int   `json:"tz_utc_offset"` // minutes east of UTC
}
