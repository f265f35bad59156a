package validate

import (
	"math"
	"testing"

	"soundconverter/internal/services"
)

func TestOutputFormat(t *testing.T) {
	f, err := OutputFormat("FLAC")
	if err != nil || f.Name != "flac" {
		t.Fatalf("OutputFormat(FLAC) = %+v, %v", f, err)
	}
	if _, err := OutputFormat("xyz"); services.CodeOf(err) != services.CodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT, got %v", err)
	}
	if _, err := OutputFormat(""); services.CodeOf(err) != services.CodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT for empty format, got %v", err)
	}
}

func TestBitrate(t *testing.T) {
	valid := map[string]string{
		"":      "",
		"192k":  "192k",
		"224":   "224k",
		" 96K ": "96k",
	}
	for in, want := range valid {
		got, err := Bitrate(in)
		if err != nil || got != want {
			t.Errorf("Bitrate(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"16k", "512k", "fast"} {
		if _, err := Bitrate(in); err == nil {
			t.Errorf("Bitrate(%q) expected error", in)
		}
	}
}

func TestModifyRanges(t *testing.T) {
	if err := Speed(1.5); err != nil {
		t.Fatalf("Speed(1.5): %v", err)
	}
	for _, bad := range []float64{0.05, 11, math.NaN()} {
		if err := Speed(bad); err == nil {
			t.Errorf("Speed(%v) expected error", bad)
		}
	}
	if err := Pitch(-24); err != nil {
		t.Fatalf("Pitch(-24): %v", err)
	}
	if err := Pitch(25); services.CodeOf(err) != services.CodeInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", err)
	}
	if err := CutWindow(10, 90); err != nil {
		t.Fatalf("CutWindow: %v", err)
	}
	if err := CutWindow(-1, 50); err == nil {
		t.Fatal("expected cut_start error")
	}
	if err := CutWindow(0, 101); err == nil {
		t.Fatal("expected cut_end error")
	}
}
