package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone is a stretch of square wave with a fixed peak amplitude in 0..1.
// Amplitude 0 produces digital silence.
type Tone struct {
	Seconds   float64
	Amplitude float64
}

// WriteWAV renders tones back to back as a 16-bit mono WAV file.
func WriteWAV(t testing.TB, path string, sampleRate int, tones ...Tone) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	var data []int
	for _, tone := range tones {
		n := int(tone.Seconds * float64(sampleRate))
		level := int(tone.Amplitude * 32767)
		for i := 0; i < n; i++ {
			if i%2 == 0 {
				data = append(data, level)
			} else {
				data = append(data, -level)
			}
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// WriteFile writes a small placeholder file, creating parent directories.
func WriteFile(t testing.TB, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
