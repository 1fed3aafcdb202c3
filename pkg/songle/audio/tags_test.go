package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// id3Frame encodes one ID3v2.3 text frame in ISO-8859-1
func id3Frame(id, text string) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.BigEndian, uint32(len(text)+1))
	b.Write([]byte{0, 0, 0})
	b.WriteString(text)
	return b.Bytes()
}

func TestReadTags(t *testing.T) {
	frames := append(id3Frame("TIT2", "Night Drive"), id3Frame("TPE1", "The Fixtures")...)
	size := len(frames)
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}

	path := filepath.Join(t.TempDir(), "tagged.mp3")
	data := append(header, frames...)
	data = append(data, make([]byte, 128)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tags, err := ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags failed: %v", err)
	}
	if tags.Title != "Night Drive" || tags.Artist != "The Fixtures" {
		t.Errorf("Unexpected tags %+v", tags)
	}
}

func TestReadTagsUntagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0}, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTags(path); err == nil {
		t.Error("Expected error for a file without tags")
	}
}
