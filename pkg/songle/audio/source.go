package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/Songle/pkg/utils"
)

// ErrNotFound is returned when a song has no audio file.
var ErrNotFound = errors.New("audio not found")

// Source is read-only access to raw audio by song id.
type Source interface {
	// List returns the ids of all songs that have audio.
	List(ctx context.Context) ([]string, error)
	// Duration probes the song length in seconds.
	Duration(ctx context.Context, songID string) (float64, error)
	// Extract returns a playable clip covering [start, end) seconds.
	Extract(ctx context.Context, songID string, start, end float64) ([]byte, error)
	// ContentType is the MIME type of the clips Extract produces.
	ContentType() string
}

// dirSource resolves song ids to files in a directory.
type dirSource struct {
	dir string
	ext string
}

func (s dirSource) path(songID string) (string, error) {
	if songID == "" || strings.ContainsAny(songID, `/\`) || songID == "." || songID == ".." {
		return "", fmt.Errorf("%w: invalid song id %q", ErrNotFound, songID)
	}
	p := filepath.Join(s.dir, songID+s.ext)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, songID)
		}
		return "", err
	}
	return p, nil
}

func (s dirSource) List(ctx context.Context) ([]string, error) {
	return utils.ListStems(s.dir, s.ext)
}

// FFmpegSource serves compressed audio files (mp3 by default) through
// ffprobe and ffmpeg.
type FFmpegSource struct {
	dirSource
	FFprobePath string
	Clip        ClipConfig
}

func NewFFmpegSource(dir, ext string, clip ClipConfig) *FFmpegSource {
	if ext == "" {
		ext = ".mp3"
	}
	return &FFmpegSource{
		dirSource: dirSource{dir: dir, ext: ext},
		Clip:      clip.withDefaults(),
	}
}

func (s *FFmpegSource) Duration(ctx context.Context, songID string) (float64, error) {
	p, err := s.path(songID)
	if err != nil {
		return 0, err
	}
	info, err := ProbeFile(ctx, s.FFprobePath, p)
	if err != nil {
		return 0, err
	}
	return info.DurationSec, nil
}

func (s *FFmpegSource) Extract(ctx context.Context, songID string, start, end float64) ([]byte, error) {
	p, err := s.path(songID)
	if err != nil {
		return nil, err
	}
	return ExtractClipFFmpeg(ctx, p, start, end, s.Clip)
}

func (s *FFmpegSource) ContentType() string {
	switch s.Clip.Format {
	case "mp3":
		return "audio/mpeg"
	case "ogg", "opus":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "adts":
		return "audio/aac"
	}
	return "application/octet-stream"
}

// WavSource serves PCM WAV files without external tools.
type WavSource struct {
	dirSource
	TempDir string
}

func NewWavSource(dir, tempDir string) *WavSource {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &WavSource{dirSource: dirSource{dir: dir, ext: ".wav"}, TempDir: tempDir}
}

func (s *WavSource) Duration(ctx context.Context, songID string) (float64, error) {
	p, err := s.path(songID)
	if err != nil {
		return 0, err
	}
	info, err := ReadWavInfo(p)
	if err != nil {
		return 0, err
	}
	return info.DurationSec, nil
}

func (s *WavSource) Extract(ctx context.Context, songID string, start, end float64) ([]byte, error) {
	p, err := s.path(songID)
	if err != nil {
		return nil, err
	}
	if err := utils.MakeDir(s.TempDir); err != nil {
		return nil, err
	}
	return TrimWav(p, start, end, s.TempDir)
}

func (s *WavSource) ContentType() string {
	return "audio/wav"
}
