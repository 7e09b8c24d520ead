package youtube

import (
	"testing"
)

func TestIsYouTubeURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PLabc123",
	}
	for _, u := range valid {
		if !IsYouTubeURL(u) {
			t.Errorf("Expected %s to be recognized as a YouTube URL", u)
		}
	}

	invalid := []string{
		"https://vimeo.com/12345",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"not a url",
		"",
	}
	for _, u := range invalid {
		if IsYouTubeURL(u) {
			t.Errorf("Expected %s to be rejected", u)
		}
	}
}

func TestIsPlaylistURL(t *testing.T) {
	if !IsPlaylistURL("https://www.youtube.com/playlist?list=PLabc123") {
		t.Error("Expected playlist path to be detected")
	}
	if !IsPlaylistURL("https://www.youtube.com/watch?v=abc&list=PLabc123") {
		t.Error("Expected list query parameter to be detected")
	}
	if IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Error("Expected plain watch URL to not be a playlist")
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch", "", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false},
	}
	for _, tt := range tests {
		id, err := ExtractVideoID(tt.url)
		if tt.wantOK && (err != nil || id != tt.wantID) {
			t.Errorf("ExtractVideoID(%s) = %q, %v; want %q", tt.url, id, err, tt.wantID)
		}
		if !tt.wantOK && err == nil {
			t.Errorf("ExtractVideoID(%s) expected error, got %q", tt.url, id)
		}
	}
}

func TestCanonicalPlaylistURL(t *testing.T) {
	got := CanonicalPlaylistURL("https://www.youtube.com/watch?v=abc&list=PL123")
	if got != "https://www.youtube.com/playlist?list=PL123" {
		t.Errorf("watch+list URL not normalized: %s", got)
	}
	plain := "https://www.youtube.com/watch?v=abc"
	if got := CanonicalPlaylistURL(plain); got != plain {
		t.Errorf("URL without list parameter should pass through, got %s", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"1:30:45", 5445, false},
		{"23:59:59", 86399, false},
		{"25:00:00", 0, true},  // hours above 23
		{"00:61:00", 0, true},  // minutes above 59
		{"00:00:75", 0, true},  // seconds above 59
		{"12:30", 0, true},     // wrong shape
		{"", 0, true},
		{"aa:bb:cc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeRange(t *testing.T) {
	r, err := ParseTimeRange("00:01:00", "00:02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 60 || r.End != 120 {
		t.Errorf("got range [%v, %v], want [60, 120]", r.Start, r.End)
	}

	// start after end must be rejected
	if _, err := ParseTimeRange("00:02:00", "00:01:00"); err == nil {
		t.Error("expected error for start >= end")
	}
	if _, err := ParseTimeRange("00:01:00", "00:01:00"); err == nil {
		t.Error("expected error for start == end")
	}

	// missing bounds stay unbounded
	r, err = ParseTimeRange("", "00:02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start >= 0 {
		t.Errorf("expected unbounded start, got %v", r.Start)
	}
	if r.End != 120 {
		t.Errorf("got end %v, want 120", r.End)
	}
}

func TestCheckAgainstDuration(t *testing.T) {
	r, _ := ParseTimeRange("00:01:00", "00:02:00")
	if err := r.CheckAgainstDuration(300); err != nil {
		t.Errorf("range within duration should pass: %v", err)
	}
	if err := r.CheckAgainstDuration(90); err == nil {
		t.Error("end beyond duration should fail")
	}
	// unknown duration skips the check
	if err := r.CheckAgainstDuration(0); err != nil {
		t.Errorf("zero duration should skip validation: %v", err)
	}
}
