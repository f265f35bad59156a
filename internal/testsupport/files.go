package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteAudio writes a silent 16-bit stereo 44.1kHz PCM WAV file whose data
// chunk holds size bytes. The bytes are placeholders for validation and
// naming tests; real decoding is left to ffmpeg stubs.
func WriteAudio(t testing.TB, path string, size int64) {
	t.Helper()

	if size < 0 {
		size = 0
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const (
		channels      = 2
		sampleRate    = 44100
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + size),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(size),
	}
	for _, field := range header {
		if err := binary.Write(f, binary.LittleEndian, field); err != nil {
			t.Fatalf("write header %s: %v", path, err)
		}
	}
	if err := f.Truncate(44 + size); err != nil {
		t.Fatalf("size %s: %v", path, err)
	}
}
