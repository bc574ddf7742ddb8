package media

import "testing"

func TestParseDurationPrefersFormat(t *testing.T) {
	raw := []byte(`{"format":{"duration":"12.6"},"streams":[{"codec_type":"video","duration":"12.4"}]}`)
	seconds, err := parseDuration(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if seconds != 13 {
		t.Fatalf("duration: got %d, want 13", seconds)
	}
}

func TestParseDurationFallsBackToStream(t *testing.T) {
	raw := []byte(`{"format":{},"streams":[{"codec_type":"video","duration":"9.2"}]}`)
	seconds, err := parseDuration(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if seconds != 9 {
		t.Fatalf("duration: got %d, want 9", seconds)
	}
}

func TestParseDurationNoDuration(t *testing.T) {
	raw := []byte(`{"format":{},"streams":[{"codec_type":"video"}]}`)
	if _, err := parseDuration(raw); err == nil {
		t.Fatal("expected error when no duration present")
	}
}

func TestParseDurationInvalidJSON(t *testing.T) {
	if _, err := parseDuration([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
