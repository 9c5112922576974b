package chunk

import (
	"strings"
	"testing"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "hello\nworld"
	chunks, err := Split(text, 100, 20)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Expected chunk to equal input, got %q", chunks[0])
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split("", 100, 20)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("Expected [\"\"], got %v", chunks)
	}
}

func TestSplit_OverlapRepeatsPredecessorTail(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks, err := Split(text, 100, 20)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) > 100 {
			t.Errorf("Chunk %d exceeds max size: %d chars", i, len(c))
		}
	}
	if chunks[1][:20] != chunks[0][len(chunks[0])-20:] {
		t.Error("Expected chunk 1 to start with the last 20 chars of chunk 0")
	}
}

func TestSplit_ReconstructsOriginal(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("line with some transcript content\n")
	}
	text := b.String()

	chunks, err := Split(text, 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	reconstructed := chunks[0]
	for _, c := range chunks[1:] {
		reconstructed += c[200:]
	}
	if reconstructed != text {
		t.Errorf("Reconstruction mismatch: got %d chars, want %d", len(reconstructed), len(text))
	}
}

func TestSplit_CutsAtLineBoundary(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("speaker: a short utterance line\n")
	}
	text := b.String()

	chunks, err := Split(text, 500, 100)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, "\n") {
			t.Errorf("Chunk %d does not end at a line boundary: %q", i, c[len(c)-20:])
		}
	}
}

func TestSplit_ZeroOverlapDisjoint(t *testing.T) {
	text := strings.Repeat("x", 300)
	chunks, err := Split(text, 100, 0)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if strings.Join(chunks, "") != text {
		t.Error("Expected disjoint chunks to concatenate back to the input")
	}
}

func TestSplit_RejectsInvalidConfig(t *testing.T) {
	if _, err := Split("text", 0, 0); err == nil {
		t.Error("Expected error for maxChars=0, got nil")
	}
	if _, err := Split("text", 100, 100); err == nil {
		t.Error("Expected error for overlap == maxChars, got nil")
	}
	if _, err := Split("text", 100, 150); err == nil {
		t.Error("Expected error for overlap > maxChars, got nil")
	}
	if _, err := Split("text", 100, -1); err == nil {
		t.Error("Expected error for negative overlap, got nil")
	}
}

// A newline sitting just inside a window must not shrink the chunk below
// the overlap: the raw boundary wins so every later chunk still carries its
// predecessor's tail and the input reconstructs.
func TestSplit_NewlineNearWindowStartKeepsOverlap(t *testing.T) {
	text := "x\n" + strings.Repeat("y", 300)
	chunks, err := Split(text, 100, 20)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 {
		t.Errorf("Expected raw boundary cut at 100 chars, got %d", len(chunks[0]))
	}

	reconstructed := chunks[0]
	for _, c := range chunks[1:] {
		if len(c) < 20 {
			t.Fatalf("Chunk shorter than overlap: %d chars", len(c))
		}
		reconstructed += c[20:]
	}
	if reconstructed != text {
		t.Errorf("Reconstruction mismatch: got %d chars, want %d", len(reconstructed), len(text))
	}
}

func TestSplit_NoLineBreakFallsBackToRawBoundary(t *testing.T) {
	text := strings.Repeat("b", 250)
	chunks, err := Split(text, 100, 10)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks[0]) != 100 {
		t.Errorf("Expected raw boundary cut at 100 chars, got %d", len(chunks[0]))
	}
}
