package youtube

import (
	"regexp"
	"strconv"
	"strings"
)

// Cue is a single subtitle cue with its start offset in seconds.
// Keeping the offset allows time-range slicing of transcripts.
type Cue struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
}

// cueTimePattern matches WebVTT and SRT cue timing lines, e.g.
// "00:01:02.500 --> 00:01:05.000" or "00:01:02,500 --> 00:01:05,000".
var cueTimePattern = regexp.MustCompile(`(\d{1,2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{1,2}:\d{2}:\d{2}[,.]\d{3})`)

// markupPattern strips inline tags such as <c> spans and timing annotations.
var markupPattern = regexp.MustCompile(`<[^>]+>`)

// ParseCues parses WebVTT or SRT subtitle content into cues.
// Lines following a timing line are collected until the next blank line.
func ParseCues(content string) []Cue {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	var cues []Cue

	for i := 0; i < len(lines); {
		m := cueTimePattern.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		start := cueTimeToSeconds(m[1])

		var textLines []string
		for i++; i < len(lines) && strings.TrimSpace(lines[i]) != ""; i++ {
			textLines = append(textLines, strings.TrimSpace(lines[i]))
		}
		text := strings.TrimSpace(markupPattern.ReplaceAllString(strings.Join(textLines, " "), ""))
		if text != "" {
			cues = append(cues, Cue{Text: text, Start: start})
		}
	}
	return cues
}

// cueTimeToSeconds converts "HH:MM:SS.mmm" (or the comma variant) to seconds.
// Returns 0 when the value cannot be parsed; a cue at offset zero is harmless.
func cueTimeToSeconds(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	parts := strings.Split(s, ":")

	var h, m int
	var sec float64
	var err error
	switch len(parts) {
	case 3:
		h, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0
		}
		m, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0
		}
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0
		}
	case 2:
		m, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0
		}
		sec, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0
		}
	default:
		return 0
	}
	return float64(h)*3600 + float64(m)*60 + sec
}

// SliceCues joins cue text within the given time range into a transcript
// string. A cue is included when its start offset falls inside the range.
func SliceCues(cues []Cue, r TimeRange) string {
	var kept []string
	for _, c := range cues {
		if r.Start >= 0 && c.Start < r.Start {
			continue
		}
		if r.End >= 0 && c.Start > r.End {
			continue
		}
		kept = append(kept, c.Text)
	}
	return strings.Join(kept, " ")
}
