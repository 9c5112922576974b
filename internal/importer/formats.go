package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/pacta/internal/speaker"
)

// Format parses one transcript file format.
type Format interface {
	// Name returns the format name.
	Name() string

	// CanHandle checks if this format can parse the given file.
	CanHandle(filename string, data []byte) bool

	// Parse converts file contents into a transcript and optional segments.
	Parse(data []byte) (*Parsed, error)
}

// Parsed is the format-independent result of reading one file.
type Parsed struct {
	Transcript string
	Segments   []speaker.Segment
}

// formats are tried in order; the first match wins. Plain text is the
// fallback and handles everything.
func defaultFormats() []Format {
	return []Format{
		whisperJSON{},
		webVTT{},
		htmlExport{},
		plainText{},
	}
}

// whisperJSON reads whisper-style transcription output: a JSON object with
// a segments list (start/end/text, optionally speaker) and/or a full text.
type whisperJSON struct{}

func (whisperJSON) Name() string { return "whisper-json" }

func (whisperJSON) CanHandle(filename string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		return true
	}
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{")
}

func (whisperJSON) Parse(data []byte) (*Parsed, error) {
	var doc struct {
		Text     string            `json:"text"`
		Segments []speaker.Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("whisper json: %w", err)
	}

	transcript := strings.TrimSpace(doc.Text)
	if transcript == "" {
		var lines []string
		for _, seg := range doc.Segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			if seg.Speaker != "" {
				lines = append(lines, seg.Speaker+": "+text)
			} else {
				lines = append(lines, text)
			}
		}
		transcript = strings.Join(lines, "\n")
	}

	return &Parsed{Transcript: transcript, Segments: doc.Segments}, nil
}

// webVTT reads WebVTT subtitle files. Voice spans (<v Name>) become segment
// speakers.
type webVTT struct{}

func (webVTT) Name() string { return "webvtt" }

func (webVTT) CanHandle(filename string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".vtt") {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(string(data)), "WEBVTT")
}

func (webVTT) Parse(data []byte) (*Parsed, error) {
	var segments []speaker.Segment
	var lines []string

	var cur *speaker.Segment
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			segments = append(segments, *cur)
			if cur.Speaker != "" {
				lines = append(lines, cur.Speaker+": "+cur.Text)
			} else {
				lines = append(lines, cur.Text)
			}
		}
		cur = nil
	}

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}
		if start, end, ok := parseCueTiming(trimmed); ok {
			flush()
			cur = &speaker.Segment{Start: start, End: end}
			continue
		}
		if cur == nil {
			// WEBVTT header, cue identifiers, NOTE blocks.
			continue
		}

		text, voice := stripVoiceTag(trimmed)
		if voice != "" && cur.Speaker == "" {
			cur.Speaker = voice
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += text
	}
	flush()

	if len(segments) == 0 {
		return nil, fmt.Errorf("webvtt: no cues found")
	}
	return &Parsed{Transcript: strings.Join(lines, "\n"), Segments: segments}, nil
}

// parseCueTiming parses "HH:MM:SS.mmm --> HH:MM:SS.mmm" (hours optional).
func parseCueTiming(line string) (start, end float64, ok bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok1 := parseVTTTimestamp(strings.TrimSpace(parts[0]))
	endStr := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endStr) == 0 {
		return 0, 0, false
	}
	end, ok2 := parseVTTTimestamp(endStr[0])
	return start, end, ok1 && ok2
}

func parseVTTTimestamp(ts string) (float64, bool) {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}

// stripVoiceTag removes a leading <v Name> tag and a trailing </v>.
func stripVoiceTag(line string) (text, voice string) {
	if !strings.HasPrefix(line, "<v") {
		return line, ""
	}
	idx := strings.Index(line, ">")
	if idx < 0 {
		return line, ""
	}
	tag := strings.TrimSpace(strings.TrimPrefix(line[:idx], "<v"))
	text = strings.TrimSuffix(line[idx+1:], "</v>")
	return strings.TrimSpace(text), tag
}

// htmlExport reads HTML transcript exports, keeping visible text only.
type htmlExport struct{}

func (htmlExport) Name() string { return "html" }

func (htmlExport) CanHandle(filename string, data []byte) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}
	head := strings.ToLower(string(data[:min(len(data), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func (htmlExport) Parse(data []byte) (*Parsed, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return &Parsed{Transcript: strings.Join(parts, "\n")}, nil
}

// plainText is the fallback: the file is the transcript.
type plainText struct{}

func (plainText) Name() string { return "text" }

func (plainText) CanHandle(string, []byte) bool { return true }

func (plainText) Parse(data []byte) (*Parsed, error) {
	return &Parsed{Transcript: strings.TrimSpace(string(data))}, nil
}
