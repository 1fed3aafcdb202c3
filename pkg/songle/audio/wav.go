package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WavInfo describes the PCM layout of a WAV file.
type WavInfo struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	DurationSec float64
}

func decodeWavInfo(r io.ReadSeeker) (*wav.Decoder, WavInfo, error) {
	d := wav.NewDecoder(r)
	if err := d.FwdToPCM(); err != nil {
		return nil, WavInfo{}, fmt.Errorf("reading wav header: %w", err)
	}
	if d.SampleRate == 0 || d.NumChans == 0 || d.BitDepth == 0 {
		return nil, WavInfo{}, errors.New("invalid wav header")
	}
	info := WavInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	frameBytes := int64(info.Channels * info.BitDepth / 8)
	info.DurationSec = float64(d.PCMLen()/frameBytes) / float64(info.SampleRate)
	return d, info, nil
}

// ReadWavInfo reads the header of a WAV file. The duration is computed from
// the size of the data chunk, so it is exact to the sample.
func ReadWavInfo(path string) (WavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WavInfo{}, err
	}
	defer f.Close()

	_, info, err := decodeWavInfo(f)
	return info, err
}

// WavInfoFromBytes reads the header of an in-memory WAV clip.
func WavInfoFromBytes(data []byte) (WavInfo, error) {
	_, info, err := decodeWavInfo(bytes.NewReader(data))
	return info, err
}

// TrimWav decodes path, keeps the frames in [start, end) seconds and returns
// the re-encoded WAV bytes. The encoder needs a seekable sink, so the clip is
// staged in tmpDir.
func TrimWav(path string, start, end float64, tmpDir string) ([]byte, error) {
	if end <= start || start < 0 {
		return nil, fmt.Errorf("invalid clip range [%s, %s)", formatSeconds(start), formatSeconds(end))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, info, err := decodeWavInfo(f)
	if err != nil {
		return nil, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding pcm: %w", err)
	}

	frames := len(buf.Data) / info.Channels
	first := int(start * float64(info.SampleRate))
	last := int(end * float64(info.SampleRate))
	if last > frames {
		last = frames
	}
	if first >= last {
		return nil, fmt.Errorf("clip start %ss is past the end of the audio (%ss)",
			formatSeconds(start), formatSeconds(info.DurationSec))
	}

	clip := &goaudio.IntBuffer{
		Format:         buf.Format,
		Data:           buf.Data[first*info.Channels : last*info.Channels],
		SourceBitDepth: info.BitDepth,
	}
	return encodeWav(clip, info, tmpDir)
}

// WriteWav encodes interleaved samples to path as PCM WAV.
func WriteWav(path string, samples []int, sampleRate, bitDepth, channels int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return enc.Close()
}

func encodeWav(buf *goaudio.IntBuffer, info WavInfo, tmpDir string) ([]byte, error) {
	tmp, err := os.CreateTemp(tmpDir, "clip-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, info.SampleRate, info.BitDepth, info.Channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(tmp)
}
