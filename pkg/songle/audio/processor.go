package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ClipConfig controls how ffmpeg produces a clip.
type ClipConfig struct {
	FFmpegPath string
	Codec      string // "copy" keeps the source frames
	Format     string // muxer passed to -f, e.g. "mp3"
	Bitrate    string // only used when Codec is not "copy"
}

func (c ClipConfig) withDefaults() ClipConfig {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.Codec == "" {
		c.Codec = "copy"
	}
	if c.Format == "" {
		c.Format = "mp3"
	}
	return c
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// ExtractClipFFmpeg trims inputPath to [start, end) seconds and returns the
// encoded clip read from ffmpeg's stdout. A 10 second timeout applies when
// ctx carries no deadline.
func ExtractClipFFmpeg(ctx context.Context, inputPath string, start, end float64, cfg ClipConfig) ([]byte, error) {
	if end <= start {
		return nil, fmt.Errorf("invalid clip range [%s, %s)", formatSeconds(start), formatSeconds(end))
	}
	cfg = cfg.withDefaults()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	args := []string{
		"-nostats",
		"-loglevel", "error",
		"-i", inputPath,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-vn",
		"-c:a", cfg.Codec,
	}
	if cfg.Codec != "copy" && cfg.Bitrate != "" {
		args = append(args, "-b:a", cfg.Bitrate)
	}
	args = append(args, "-f", cfg.Format, "pipe:1")

	cmd := exec.CommandContext(ctx, cfg.FFmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed: %v (%s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no audio")
	}

	return stdout.Bytes(), nil
}
