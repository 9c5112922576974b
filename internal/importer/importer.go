// Package importer bulk-loads transcript files into the call store so
// pre-existing recordings can go through the same processing pipeline.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/store"
)

// Speaking rate used to estimate call duration from transcript length.
const wordsPerMinute = 150

// Shortest duration ever assigned to an imported call.
const minDurationMinutes = 5

// appKeywords maps filename fragments to an app name; first match wins.
var appKeywords = []struct {
	keyword string
	app     string
}{
	{"zoom", "Zoom"},
	{"teams", "Microsoft Teams"},
	{"telegram", "Telegram"},
	{"facetime", "FaceTime"},
	{"slack", "Slack"},
	{"meet", "Google Meet"},
}

// defaultApps are rotated through when no keyword matches.
var defaultApps = []string{"Zoom", "Zoom", "Google Meet", "Telegram", "FaceTime"}

// Result reports what happened to one input file.
type Result struct {
	Path      string
	SessionID string
	AppName   string
	Format    string
	Skipped   bool
	Err       error
}

// Importer reads transcript files and writes call records.
type Importer struct {
	store      *store.Store
	formats    []Format
	rand       *rand.Rand
	defaultIdx int
}

// New creates an importer with the built-in format adapters.
func New(st *store.Store) *Importer {
	return &Importer{
		store:   st,
		formats: defaultFormats(),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ImportDir imports all recognizable files under dir (non-recursive),
// sorted by name.
func (im *Importer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("importer: read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".json", ".vtt", ".html", ".htm", ".md":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, errors.New("importer: no transcript files found")
	}
	return im.ImportFiles(ctx, paths), nil
}

// ImportFiles imports the given files in order, one result per file.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) []Result {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		results = append(results, im.importFile(ctx, p))
	}

	imported := 0
	for _, r := range results {
		if !r.Skipped && r.Err == nil {
			imported++
		}
	}
	log.Info().Int("imported", imported).Int("total", len(paths)).Msg("import complete")
	return results
}

func (im *Importer) importFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("importer: %w", err)
		return res
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		res.Skipped = true
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Err = fmt.Errorf("importer: %w", err)
		return res
	}

	format := im.pickFormat(filepath.Base(path), data)
	res.Format = format.Name()

	parsed, err := format.Parse(data)
	if err != nil {
		res.Err = err
		return res
	}
	if strings.TrimSpace(parsed.Transcript) == "" {
		res.Skipped = true
		return res
	}

	started := info.ModTime()
	sessionID, started, err := im.uniqueSessionID(ctx, started)
	if err != nil {
		res.Err = err
		return res
	}

	duration := estimateDuration(parsed.Transcript)
	appName := im.guessApp(filepath.Base(path))

	call := &store.Call{
		SessionID:       sessionID,
		AppName:         appName,
		StartedAt:       started.Format("2006-01-02T15:04:05"),
		EndedAt:         started.Add(duration).Format("2006-01-02T15:04:05"),
		DurationSeconds: duration.Seconds(),
		Transcript:      parsed.Transcript,
		Segments:        parsed.Segments,
	}
	if err := im.store.InsertCall(ctx, call); err != nil {
		res.Err = err
		return res
	}

	res.SessionID = sessionID
	res.AppName = appName
	log.Info().
		Str("session", sessionID).
		Str("app", appName).
		Str("format", res.Format).
		Msg("imported transcript")
	return res
}

func (im *Importer) pickFormat(filename string, data []byte) Format {
	for _, f := range im.formats {
		if f.CanHandle(filename, data) {
			return f
		}
	}
	// Unreachable: plain text handles everything.
	return plainText{}
}

// uniqueSessionID derives a session id from the file's timestamp, nudging
// it by 1-59 seconds when another call already owns that second.
func (im *Importer) uniqueSessionID(ctx context.Context, started time.Time) (string, time.Time, error) {
	id := started.Format("20060102_150405")
	_, err := im.store.GetCall(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return id, started, nil
	}
	if err != nil {
		return "", started, err
	}

	started = started.Add(time.Duration(1+im.rand.Intn(59)) * time.Second)
	return started.Format("20060102_150405"), started, nil
}

func (im *Importer) guessApp(filename string) string {
	lower := strings.ToLower(filename)
	for _, k := range appKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.app
		}
	}
	app := defaultApps[im.defaultIdx%len(defaultApps)]
	im.defaultIdx++
	return app
}

func estimateDuration(transcript string) time.Duration {
	words := len(strings.Fields(transcript))
	minutes := float64(words) / wordsPerMinute
	if minutes < minDurationMinutes {
		minutes = minDurationMinutes
	}
	return time.Duration(minutes * float64(time.Minute))
}
