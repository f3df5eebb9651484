package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV assembles a minimal RIFF container around pcm, optionally
// with extra chunks before the data chunk.
func buildWAV(pcm []byte, extraChunks bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // size, unchecked
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))

	if extraChunks {
		buf.WriteString("LIST")
		binary.Write(&buf, binary.LittleEndian, uint32(5))
		buf.Write([]byte{1, 2, 3, 4, 5})
		buf.WriteByte(0) // word alignment pad
	}

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{10, 20, 30, 40, 50, 60}

	got, err := extractPCM(buildWAV(pcm, false))
	if err != nil {
		t.Fatalf("extractPCM: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("extracted %v, want %v", got, pcm)
	}
}

func TestExtractPCMSkipsExtraChunks(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}

	got, err := extractPCM(buildWAV(pcm, true))
	if err != nil {
		t.Fatalf("extractPCM with extra chunks: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("extracted %v, want %v", got, pcm)
	}
}

func TestExtractPCMRejectsGarbage(t *testing.T) {
	if _, err := extractPCM([]byte("too short")); err == nil {
		t.Error("short input accepted")
	}

	bogus := make([]byte, 64)
	copy(bogus, "JUNK")
	if _, err := extractPCM(bogus); err == nil {
		t.Error("non-RIFF input accepted")
	}

	// RIFF header but no data chunk.
	noData := buildWAV(nil, true)
	noData = noData[:len(noData)-8] // strip the data chunk header
	if _, err := extractPCM(noData); err == nil {
		t.Error("missing data chunk accepted")
	}
}

func TestChimePCMShape(t *testing.T) {
	pcm := chimePCM()

	if len(pcm)%2 != 0 {
		t.Fatal("chime PCM has odd byte count for 16-bit samples")
	}
	// Two 150ms notes at 24kHz mono, 2 bytes per sample.
	want := 2 * (SampleRate * 150 / 1000) * 2
	if len(pcm) != want {
		t.Errorf("chime length = %d bytes, want %d", len(pcm), want)
	}

	// First sample is silence (sin 0), and no sample may clip.
	for i := 0; i < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		if v == math.MinInt16 || v == math.MaxInt16 {
			t.Fatalf("sample %d clips: %d", i/2, v)
		}
	}
}
