package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/pacta/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pacta.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	return path
}

func TestWhisperJSONFormat(t *testing.T) {
	data := `{
		"segments": [
			{"start": 0.0, "end": 4.2, "text": "Hello everyone.", "speaker": "SPEAKER_00"},
			{"start": 4.2, "end": 8.0, "text": "Hi, let's start.", "speaker": "SPEAKER_01"},
			{"start": 8.0, "end": 8.5, "text": "   "}
		]
	}`

	f := whisperJSON{}
	if !f.CanHandle("call.json", []byte(data)) {
		t.Fatal("Expected CanHandle true for .json")
	}
	parsed, err := f.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Segments) != 3 {
		t.Errorf("Expected 3 segments, got %d", len(parsed.Segments))
	}
	want := "SPEAKER_00: Hello everyone.\nSPEAKER_01: Hi, let's start."
	if parsed.Transcript != want {
		t.Errorf("Expected transcript %q, got %q", want, parsed.Transcript)
	}
}

func TestWhisperJSONFormat_TopLevelText(t *testing.T) {
	parsed, err := whisperJSON{}.Parse([]byte(`{"text": "full transcript here"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Transcript != "full transcript here" {
		t.Errorf("Expected top-level text used, got %q", parsed.Transcript)
	}
}

func TestWebVTTFormat(t *testing.T) {
	data := "WEBVTT\n" +
		"\n" +
		"1\n" +
		"00:00:01.000 --> 00:00:04.000\n" +
		"<v Anna>Hello there.</v>\n" +
		"\n" +
		"2\n" +
		"00:01:10.500 --> 00:01:12.000\n" +
		"General reply,\n" +
		"continued line.\n"

	f := webVTT{}
	if !f.CanHandle("notes.txt", []byte(data)) {
		t.Fatal("Expected CanHandle true for WEBVTT header")
	}
	parsed, err := f.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(parsed.Segments))
	}
	if parsed.Segments[0].Speaker != "Anna" || parsed.Segments[0].Text != "Hello there." {
		t.Errorf("Unexpected first segment: %+v", parsed.Segments[0])
	}
	if parsed.Segments[0].Start != 1.0 || parsed.Segments[0].End != 4.0 {
		t.Errorf("Unexpected first cue timing: %+v", parsed.Segments[0])
	}
	if parsed.Segments[1].Start != 70.5 {
		t.Errorf("Expected second cue start 70.5, got %v", parsed.Segments[1].Start)
	}
	if parsed.Segments[1].Text != "General reply, continued line." {
		t.Errorf("Expected multi-line cue joined, got %q", parsed.Segments[1].Text)
	}
	if !strings.Contains(parsed.Transcript, "Anna: Hello there.") {
		t.Errorf("Expected speaker-labeled transcript, got %q", parsed.Transcript)
	}
}

func TestWebVTTFormat_NoCues(t *testing.T) {
	if _, err := (webVTT{}).Parse([]byte("WEBVTT\n\nNOTE nothing here\n")); err == nil {
		t.Error("Expected error for VTT without cues, got nil")
	}
}

func TestHTMLFormat(t *testing.T) {
	data := `<!DOCTYPE html>
<html><head><title>Export</title><style>body{color:red}</style></head>
<body><script>var x = 1;</script>
<p>First line of the call.</p>
<div>Second line.</div>
</body></html>`

	f := htmlExport{}
	if !f.CanHandle("export.html", []byte(data)) {
		t.Fatal("Expected CanHandle true for .html")
	}
	parsed, err := f.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if strings.Contains(parsed.Transcript, "var x") || strings.Contains(parsed.Transcript, "color:red") {
		t.Errorf("Expected script/style stripped, got %q", parsed.Transcript)
	}
	if strings.Contains(parsed.Transcript, "Export") {
		t.Errorf("Expected head content stripped, got %q", parsed.Transcript)
	}
	if !strings.Contains(parsed.Transcript, "First line of the call.") ||
		!strings.Contains(parsed.Transcript, "Second line.") {
		t.Errorf("Expected body text kept, got %q", parsed.Transcript)
	}
}

func TestFormatSelectionOrder(t *testing.T) {
	im := New(testStore(t))

	tests := []struct {
		filename string
		data     string
		want     string
	}{
		{"call.json", `{"text": "x"}`, "whisper-json"},
		{"call.vtt", "WEBVTT\n", "webvtt"},
		{"braces.txt", `{"segments": []}`, "whisper-json"},
		{"export.htm", "<html></html>", "html"},
		{"plain.txt", "Anna: hello", "text"},
	}
	for _, tt := range tests {
		got := im.pickFormat(tt.filename, []byte(tt.data)).Name()
		if got != tt.want {
			t.Errorf("pickFormat(%s): Expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestImportFiles(t *testing.T) {
	s := testStore(t)
	im := New(s)
	dir := t.TempDir()
	ctx := context.Background()

	mtime := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	path := writeFile(t, dir, "zoom-standup.txt",
		strings.Repeat("word ", 300), mtime)

	results := im.ImportFiles(ctx, []string{path})
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Err != nil || r.Skipped {
		t.Fatalf("Expected clean import, got %+v", r)
	}
	if r.SessionID != "20260115_100000" {
		t.Errorf("Expected session id from mtime, got %s", r.SessionID)
	}
	if r.AppName != "Zoom" {
		t.Errorf("Expected app Zoom from filename, got %s", r.AppName)
	}

	call, err := s.GetCall(ctx, r.SessionID)
	if err != nil {
		t.Fatalf("GetCall failed: %v", err)
	}
	// 300 words at 150 wpm, floored at 5 minutes.
	if call.DurationSeconds != 300 {
		t.Errorf("Expected 300s duration floor, got %v", call.DurationSeconds)
	}
	if call.StartedAt != "2026-01-15T10:00:00" {
		t.Errorf("Expected started_at from mtime, got %s", call.StartedAt)
	}
}

func TestImportFiles_CollisionGetsNewID(t *testing.T) {
	s := testStore(t)
	im := New(s)
	dir := t.TempDir()
	ctx := context.Background()

	mtime := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	a := writeFile(t, dir, "a.txt", "transcript number one with several words", mtime)
	b := writeFile(t, dir, "b.txt", "transcript number two with several words", mtime)

	results := im.ImportFiles(ctx, []string{a, b})
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("Expected clean imports, got %+v", results)
	}
	if results[0].SessionID == results[1].SessionID {
		t.Errorf("Expected distinct session ids, both got %s", results[0].SessionID)
	}

	listings, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(listings) != 2 {
		t.Errorf("Expected 2 calls stored, got %d", len(listings))
	}
}

func TestImportFiles_EmptySkipped(t *testing.T) {
	s := testStore(t)
	im := New(s)
	dir := t.TempDir()

	path := writeFile(t, dir, "empty.txt", "   \n  ", time.Now())
	results := im.ImportFiles(context.Background(), []string{path})
	if !results[0].Skipped {
		t.Errorf("Expected empty file skipped, got %+v", results[0])
	}
}

func TestImportDir(t *testing.T) {
	s := testStore(t)
	im := New(s)
	dir := t.TempDir()
	ctx := context.Background()

	writeFile(t, dir, "b.txt", "second transcript with enough words here",
		time.Date(2026, 1, 16, 9, 0, 0, 0, time.Local))
	writeFile(t, dir, "a.txt", "first transcript with enough words here",
		time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local))
	writeFile(t, dir, "ignored.wav", "binary stuff", time.Now())

	results, err := im.ImportDir(ctx, dir)
	if err != nil {
		t.Fatalf("ImportDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results (wav ignored), got %d", len(results))
	}
	if filepath.Base(results[0].Path) != "a.txt" || filepath.Base(results[1].Path) != "b.txt" {
		t.Errorf("Expected sorted order a.txt, b.txt, got %v", results)
	}
}

func TestImportDir_Empty(t *testing.T) {
	im := New(testStore(t))
	if _, err := im.ImportDir(context.Background(), t.TempDir()); err == nil {
		t.Error("Expected error for dir without transcripts, got nil")
	}
}

func TestGuessApp_DefaultRotation(t *testing.T) {
	im := New(testStore(t))

	first := im.guessApp("mystery-call-1.txt")
	second := im.guessApp("mystery-call-2.txt")
	if first != defaultApps[0] || second != defaultApps[1] {
		t.Errorf("Expected rotation through defaults, got %s then %s", first, second)
	}
	if got := im.guessApp("weekly-teams-sync.txt"); got != "Microsoft Teams" {
		t.Errorf("Expected keyword match Microsoft Teams, got %s", got)
	}
}
