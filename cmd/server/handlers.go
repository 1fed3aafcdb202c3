package main

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/clips"
)

const greeting = "What will today's adventure be?"

// respondJSON sends a JSON response
func (s *Server) respondJSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// respondError sends an error response
func (s *Server) respondError(c *gin.Context, status int, message string) {
	s.respondJSON(c, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// dateKey resolves ?date= to a playable day, defaulting to today. It writes
// a 400 and returns false when the date is unusable.
func (s *Server) dateKey(c *gin.Context) (int64, bool) {
	raw := c.Query("date")
	if raw == "" {
		return s.service.CurrentDate(), true
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "Invalid date")
		return 0, false
	}
	key, err := s.service.NormalizeDate(unix)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "Invalid date")
		return 0, false
	}
	return key, true
}

// assignment resolves the day named by ?date=.
func (s *Server) assignment(c *gin.Context) (*models.DailyAssignment, int64, bool) {
	key, ok := s.dateKey(c)
	if !ok {
		return nil, 0, false
	}
	a, err := s.service.ResolveDaily(c.Request.Context(), key)
	if err != nil {
		s.log.Errorf("Failed to resolve day %d: %v", key, err)
		s.respondError(c, http.StatusInternalServerError, "Failed to resolve day")
		return nil, 0, false
	}
	return a, key, true
}

// handleRoot handles GET /
func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, greeting)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	s.respondJSON(c, http.StatusOK, HealthResponse{
		Status: "healthy",
		Today:  s.service.CurrentDate(),
		Songs:  s.service.Catalog().Len(),
	})
}

// handleSongs handles GET /songs and lists the metadata of every song
func (s *Server) handleSongs(c *gin.Context) {
	if _, ok := s.dateKey(c); !ok {
		return
	}
	songs := s.service.Catalog().Songs()
	out := make([]models.SongMetadata, len(songs))
	for i, song := range songs {
		out[i] = song.SongMetadata
	}
	s.respondJSON(c, http.StatusOK, out)
}

// handleRandom handles GET /random and returns the ids picked for the day
func (s *Server) handleRandom(c *gin.Context) {
	a, _, ok := s.assignment(c)
	if !ok {
		return
	}
	s.respondJSON(c, http.StatusOK, a.SongIDs())
}

// handleStart handles GET /start
func (s *Server) handleStart(c *gin.Context) {
	s.respondJSON(c, http.StatusOK, s.service.StartInfo())
}

// handleSong handles GET /song/:song
func (s *Server) handleSong(c *gin.Context) {
	if _, ok := s.dateKey(c); !ok {
		return
	}
	song, err := s.service.Catalog().Get(c.Param("song"))
	if err != nil {
		s.respondError(c, http.StatusNotFound, "Song not found")
		return
	}
	s.respondJSON(c, http.StatusOK, song.SongMetadata)
}

// handleCover handles GET /cover/:cover, the image as base64 text
func (s *Server) handleCover(c *gin.Context) {
	data, ok := s.service.Catalog().Cover(c.Param("cover"))
	if !ok {
		s.respondError(c, http.StatusNotFound, "Cover not found")
		return
	}
	c.String(http.StatusOK, base64.StdEncoding.EncodeToString(data))
}

// handleClue handles GET /clue/:clue/:song
func (s *Server) handleClue(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("clue"))
	clue := models.ClueIndex(n)
	if err != nil || !clue.Valid() {
		s.respondError(c, http.StatusNotFound, "Unknown clue")
		return
	}
	key, ok := s.dateKey(c)
	if !ok {
		return
	}

	clip, err := s.service.GetClip(c.Request.Context(), c.Param("song"), clue, key)
	switch {
	case errors.Is(err, clips.ErrNotFound), errors.Is(err, catalog.ErrUnknownSong):
		s.respondError(c, http.StatusNotFound, "Song not found")
		return
	case err != nil:
		s.log.Errorf("Failed to extract clue %d of %s: %v", clue, c.Param("song"), err)
		s.respondError(c, http.StatusInternalServerError, "Failed to extract clip")
		return
	}
	c.Data(http.StatusOK, s.service.ClipContentType(), clip)
}

// handleStatHome handles GET /stats/home
func (s *Server) handleStatHome(c *gin.Context) {
	s.record(c, s.service.Stats().HomeView())
}

// handleStatFinished handles GET /stats/finished
func (s *Server) handleStatFinished(c *gin.Context) {
	s.record(c, s.service.Stats().DayFinished())
}

// handleStatClue handles GET /stats/clue?song=&clue=
func (s *Server) handleStatClue(c *gin.Context) {
	song, clue := c.Query("song"), c.Query("clue")
	if song == "" || clue == "" {
		s.respondError(c, http.StatusNotFound, "Not found")
		return
	}
	s.record(c, s.service.Stats().ClueUsed(song, clue))
}

func (s *Server) record(c *gin.Context, err error) {
	if err != nil {
		s.log.Errorf("Failed to record stat: %v", err)
		s.respondError(c, http.StatusInternalServerError, "Failed to record stat")
		return
	}
	c.Status(http.StatusOK)
}

// handleDashboard handles GET /dashboard, a key check for the frontend login
func (s *Server) handleDashboard(c *gin.Context) {
	c.Status(http.StatusOK)
}

// handleDashboardTotal handles GET /dashboard/total
func (s *Server) handleDashboardTotal(c *gin.Context) {
	totals, err := s.service.Stats().Totals()
	if err != nil {
		s.log.Errorf("Failed to read totals: %v", err)
		s.respondError(c, http.StatusInternalServerError, "Failed to read stats")
		return
	}
	s.respondJSON(c, http.StatusOK, DashboardTotalResponse{
		TotalHomeViews:    totals.HomepageViews,
		TotalDaysFinished: totals.DaysFinished,
	})
}

// rangeParams reads the required ?start=&end= pair.
func (s *Server) rangeParams(c *gin.Context) (int64, int64, bool) {
	start, errStart := strconv.ParseInt(c.Query("start"), 10, 64)
	end, errEnd := strconv.ParseInt(c.Query("end"), 10, 64)
	if errStart != nil || errEnd != nil || end < start {
		s.respondError(c, http.StatusBadRequest, "start and end must be unix milliseconds with start <= end")
		return 0, 0, false
	}
	return start, end, true
}

// handleDashboardWithin handles GET /dashboard/within?start=&end=
func (s *Server) handleDashboardWithin(c *gin.Context) {
	start, end, ok := s.rangeParams(c)
	if !ok {
		return
	}
	sum, err := s.service.Stats().TotalsWithin(start, end)
	if err != nil {
		s.log.Errorf("Failed to read stats within [%d, %d]: %v", start, end, err)
		s.respondError(c, http.StatusInternalServerError, "Failed to read stats")
		return
	}
	s.respondJSON(c, http.StatusOK, DashboardWithinResponse{
		HomeViews:   sum.HomepageViews,
		DayFinished: sum.DaysFinished,
	})
}

// handleDashboardClue handles GET /dashboard/clue?song=&clue=&start=&end=
func (s *Server) handleDashboardClue(c *gin.Context) {
	start, end, ok := s.rangeParams(c)
	if !ok {
		return
	}
	song, clue := c.Query("song"), c.Query("clue")
	if song == "" || clue == "" {
		s.respondError(c, http.StatusBadRequest, "song and clue are required")
		return
	}
	count, err := s.service.Stats().ClueCount(song, clue, start, end)
	if err != nil {
		s.log.Errorf("Failed to read clue stat: %v", err)
		s.respondError(c, http.StatusInternalServerError, "Failed to read stats")
		return
	}
	s.respondJSON(c, http.StatusOK, DashboardClueResponse{Song: song, Clue: clue, Count: count})
}
