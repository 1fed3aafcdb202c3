package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

const testSampleRate = 8000

// writeTone writes a mono 16-bit sine wave of the given length
func writeTone(t *testing.T, path string, seconds float64) {
	t.Helper()
	n := int(seconds * testSampleRate)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/testSampleRate))
	}
	if err := WriteWav(path, samples, testSampleRate, 16, 1); err != nil {
		t.Fatalf("Failed to write test wav: %v", err)
	}
}

// TestReadWavInfo checks the duration is computed from the data chunk
func TestReadWavInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 3)

	info, err := ReadWavInfo(path)
	if err != nil {
		t.Fatalf("ReadWavInfo failed: %v", err)
	}
	if info.SampleRate != testSampleRate || info.Channels != 1 || info.BitDepth != 16 {
		t.Errorf("Unexpected format: %+v", info)
	}
	if math.Abs(info.DurationSec-3) > 1e-9 {
		t.Errorf("Expected 3s duration, got %f", info.DurationSec)
	}
}

// TestTrimWav checks that the clip covers exactly the requested window
func TestTrimWav(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTone(t, path, 10)

	clip, err := TrimWav(path, 4, 5, dir)
	if err != nil {
		t.Fatalf("TrimWav failed: %v", err)
	}

	info, err := WavInfoFromBytes(clip)
	if err != nil {
		t.Fatalf("Clip is not a valid wav: %v", err)
	}
	if math.Abs(info.DurationSec-1) > 1e-9 {
		t.Errorf("Expected 1s clip, got %f", info.DurationSec)
	}
}

// TestTrimWavClampsEnd checks that a window past the end is shortened
func TestTrimWavClampsEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.wav")
	writeTone(t, path, 2)

	clip, err := TrimWav(path, 1.5, 4, dir)
	if err != nil {
		t.Fatalf("TrimWav failed: %v", err)
	}
	info, _ := WavInfoFromBytes(clip)
	if math.Abs(info.DurationSec-0.5) > 1e-9 {
		t.Errorf("Expected 0.5s clip, got %f", info.DurationSec)
	}

	if _, err := TrimWav(path, 3, 4, dir); err == nil {
		t.Error("Expected error for start past the end")
	}
	if _, err := TrimWav(path, 1, 1, dir); err == nil {
		t.Error("Expected error for empty range")
	}
}

func TestWavSource(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "b.wav"), 2)
	writeTone(t, filepath.Join(dir, "a.wav"), 3)

	src := NewWavSource(dir, t.TempDir())
	ctx := context.Background()

	ids, err := src.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Unexpected ids: %v", ids)
	}

	d, err := src.Duration(ctx, "a")
	if err != nil || math.Abs(d-3) > 1e-9 {
		t.Errorf("Duration(a) = %f, %v", d, err)
	}

	if _, err := src.Duration(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := src.Extract(ctx, "../a", 0, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for path traversal, got %v", err)
	}
	if src.ContentType() != "audio/wav" {
		t.Errorf("Unexpected content type %s", src.ContentType())
	}
}

type fakeSource struct {
	durations map[string]float64
}

func (f fakeSource) List(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.durations))
	for id := range f.durations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f fakeSource) Duration(_ context.Context, id string) (float64, error) {
	time.Sleep(time.Millisecond)
	d, ok := f.durations[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

func (f fakeSource) Extract(context.Context, string, float64, float64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f fakeSource) ContentType() string { return "audio/test" }

// TestProbeAll checks fan-out probing collects both durations and failures
func TestProbeAll(t *testing.T) {
	src := fakeSource{durations: map[string]float64{}}
	var ids []string
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("song%02d", i)
		src.durations[id] = float64(i + 10)
		ids = append(ids, id)
	}
	ids = append(ids, "ghost")

	res := ProbeAll(context.Background(), src, ids, 4)

	if len(res.Durations) != 50 {
		t.Errorf("Expected 50 durations, got %d", len(res.Durations))
	}
	if res.Durations["song07"] != 17 {
		t.Errorf("Unexpected duration for song07: %f", res.Durations["song07"])
	}
	if err, ok := res.Failures["ghost"]; !ok || !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ghost failure, got %v", res.Failures)
	}
}

// TestFFmpegSource exercises the ffmpeg path when the tools are installed
func TestFFmpegSource(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	dir := t.TempDir()
	mp3 := filepath.Join(dir, "tone.mp3")
	gen := exec.Command("ffmpeg", "-y", "-v", "quiet", "-f", "lavfi", "-i", "sine=frequency=440:duration=5",
		"-c:a", "libmp3lame", "-b:a", "128k", mp3)
	if err := gen.Run(); err != nil {
		t.Skipf("ffmpeg cannot encode mp3 here: %v", err)
	}

	src := NewFFmpegSource(dir, ".mp3", ClipConfig{})
	ctx := context.Background()

	d, err := src.Duration(ctx, "tone")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if math.Abs(d-5) > 0.2 {
		t.Errorf("Expected about 5s, got %f", d)
	}

	clip, err := src.Extract(ctx, "tone", 1, 2.5)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(clip) == 0 {
		t.Fatal("Empty clip")
	}
	if src.ContentType() != "audio/mpeg" {
		t.Errorf("Unexpected content type %s", src.ContentType())
	}

	if _, err := src.Extract(ctx, "missing", 0, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestParseProbeReport(t *testing.T) {
	out := []byte(`{"streams":[{"codec_name":"mp3","sample_rate":"44100","channels":2}],
		"format":{"duration":"187.245714","bit_rate":"320000"}}`)
	info, err := parseProbeReport(out)
	if err != nil {
		t.Fatalf("parseProbeReport failed: %v", err)
	}
	if info.DurationSec != 187.245714 || info.SampleRate != 44100 || info.Channels != 2 ||
		info.BitRate != 320000 || info.Codec != "mp3" {
		t.Errorf("Unexpected probe info %+v", info)
	}

	if _, err := parseProbeReport([]byte(`{"streams":[],"format":{"duration":"1"}}`)); err == nil {
		t.Error("Expected error without an audio stream")
	}
	if _, err := parseProbeReport([]byte(`{"streams":[{}],"format":{"duration":"N/A"}}`)); err == nil {
		t.Error("Expected error for an unparsable duration")
	}
}
