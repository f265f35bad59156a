package filterchain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"soundconverter/internal/services"
)

func tempoFactors(t *testing.T, chain Chain) []float64 {
	t.Helper()
	var factors []float64
	for _, primitive := range chain {
		value, ok := strings.CutPrefix(primitive, "atempo=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			t.Fatalf("unparseable atempo %q: %v", primitive, err)
		}
		factors = append(factors, f)
	}
	return factors
}

func product(values []float64) float64 {
	p := 1.0
	for _, v := range values {
		p *= v
	}
	return p
}

func TestBuildIdentityIsEmpty(t *testing.T) {
	chain, err := Build(1.0, 0, 44100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !chain.Empty() || chain.String() != "" {
		t.Fatalf("expected empty chain, got %q", chain.String())
	}
}

func TestBuildOctaveUp(t *testing.T) {
	chain, err := Build(1.0, 12, 44100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if chain[0] != "asetrate=88200" {
		t.Fatalf("expected asetrate=88200 first, got %q", chain[0])
	}
	factors := tempoFactors(t, chain)
	if len(factors) == 0 {
		t.Fatal("expected atempo correction")
	}
	if got := product(factors); math.Abs(got-0.5) > 1e-3 {
		t.Fatalf("pitch correction product = %v, want 0.5", got)
	}
}

func TestBuildKeepsTempoInRange(t *testing.T) {
	cases := []struct {
		speed     float64
		semitones int
	}{
		{0.1, 0},
		{10, 0},
		{0.3, -24},
		{4, 24},
		{1.5, 7},
		{0.75, -5},
	}
	for _, tc := range cases {
		chain, err := Build(tc.speed, tc.semitones, 48000)
		if err != nil {
			t.Fatalf("Build(%v, %d): %v", tc.speed, tc.semitones, err)
		}
		for _, f := range tempoFactors(t, chain) {
			if f < 0.5 || f > 2.0 {
				t.Fatalf("Build(%v, %d) emitted out-of-range atempo %v in %q", tc.speed, tc.semitones, f, chain)
			}
		}
	}
}

func TestBuildStageProducts(t *testing.T) {
	speedOnly, err := Build(3.7, 0, 44100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := product(tempoFactors(t, speedOnly)); math.Abs(got-3.7)/3.7 > 1e-3 {
		t.Fatalf("speed product = %v, want 3.7", got)
	}

	pitchOnly, err := Build(1.0, -19, 44100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := 1 / math.Pow(2, -19.0/12)
	if got := product(tempoFactors(t, pitchOnly)); math.Abs(got-want)/want > 1e-3 {
		t.Fatalf("pitch product = %v, want %v", got, want)
	}
}

func TestBuildPitchStagePrecedesSpeed(t *testing.T) {
	chain, err := Build(1.25, 3, 44100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(chain[0], "asetrate=") {
		t.Fatalf("expected asetrate first, got %q", chain)
	}
	if chain[len(chain)-1] != "atempo=1.25" {
		t.Fatalf("expected speed stage last, got %q", chain)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	if _, err := Build(0, 0, 44100); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero speed, got %v", err)
	}
	if _, err := Build(math.NaN(), 0, 44100); err == nil {
		t.Fatal("expected error for NaN speed")
	}
	if _, err := Build(1, 2, 0); services.CodeOf(err) != services.CodeInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER for missing sample rate, got %v", err)
	}
	if _, err := Build(1.5, 0, 0); err != nil {
		t.Fatalf("sample rate is irrelevant without pitch shift: %v", err)
	}
}

func TestTempoNearUnityIsDropped(t *testing.T) {
	if got := Tempo(1.0005); len(got) != 0 {
		t.Fatalf("expected no primitives, got %q", got)
	}
	if got := Tempo(0.25).String(); got != "atempo=0.5,atempo=0.5" {
		t.Fatalf("unexpected decomposition %q", got)
	}
	if got := Tempo(8).String(); got != "atempo=2,atempo=2,atempo=2" {
		t.Fatalf("unexpected decomposition %q", got)
	}
}
