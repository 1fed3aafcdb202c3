package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

const defaultProbeTimeout = 5 * time.Second

// ProbeInfo is the part of an ffprobe report the catalog needs.
type ProbeInfo struct {
	DurationSec float64
	Codec       string
	SampleRate  int
	Channels    int
	BitRate     int
}

// only the entries requested through -show_entries are present
type probeReport struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// ProbeFile asks ffprobe for the container duration and the first audio
// stream of path.
func ProbeFile(ctx context.Context, ffprobePath, path string) (*ProbeInfo, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultProbeTimeout)
		defer cancel()
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "format=duration,bit_rate:stream=codec_name,sample_rate,channels",
		"-print_format", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %v (%s)", path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return parseProbeReport(out)
}

func parseProbeReport(out []byte) (*ProbeInfo, error) {
	var report probeReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	if len(report.Streams) == 0 {
		return nil, errors.New("no audio stream found")
	}

	duration, err := strconv.ParseFloat(report.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing duration %q: %w", report.Format.Duration, err)
	}
	stream := report.Streams[0]
	info := &ProbeInfo{
		DurationSec: duration,
		Codec:       stream.CodecName,
		Channels:    stream.Channels,
	}
	info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
	info.BitRate, _ = strconv.Atoi(report.Format.BitRate)
	return info, nil
}
