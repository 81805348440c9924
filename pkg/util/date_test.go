package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2025-03-04T09:30:00Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnixSeconds(t *testing.T) {
	ts := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
	if got := ParseTimeDefault("garbage", def); !got.Equal(def) {
		t.Fatalf("expected default for junk, got %v", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("25", 50); got != 25 {
		t.Fatalf("got %d, want 25", got)
	}
	if got := ParseIntDefault("", 50); got != 50 {
		t.Fatalf("got %d, want default", got)
	}
	if got := ParseIntDefault("x", 50); got != 50 {
		t.Fatalf("got %d, want default", got)
	}
}
