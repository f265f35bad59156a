package filterchain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"soundconverter/internal/services"
)

// Preset names a mastering profile.
type Preset string

const (
	PresetMusic     Preset = "music"
	PresetPodcast   Preset = "podcast"
	PresetVoiceover Preset = "voiceover"
	PresetCustom    Preset = "custom"
)

// EQ profiles applied ahead of loudness normalization.
const (
	eqBalanced   = "balanced"
	eqVocalBoost = "vocal_boost"
	eqClarity    = "clarity"
)

const (
	loudnessRange = 11.0

	minTargetLUFS = -50.0
	maxTargetLUFS = -5.0
	minTruePeak   = -9.0
	maxTruePeak   = 0.0
	maxGainDB     = 24.0
)

type presetProfile struct {
	targetLUFS float64
	eq         string
}

var presetProfiles = map[Preset]presetProfile{
	PresetMusic:     {targetLUFS: -14, eq: eqBalanced},
	PresetPodcast:   {targetLUFS: -16, eq: eqVocalBoost},
	PresetVoiceover: {targetLUFS: -18, eq: eqClarity},
	PresetCustom:    {targetLUFS: -14, eq: eqBalanced},
}

var eqFilters = map[string][]string{
	eqBalanced:   nil,
	eqVocalBoost: {"highpass=f=80", "equalizer=f=3000:t=q:w=1:g=2"},
	eqClarity:    {"highpass=f=80", "equalizer=f=4000:t=q:w=1:g=3"},
}

var titleCaser = cases.Title(language.Und)

// ParsePreset resolves a preset name case-insensitively. An empty name
// selects PresetMusic.
func ParsePreset(name string) (Preset, error) {
	normalized := Preset(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return PresetMusic, nil
	}
	if _, ok := presetProfiles[normalized]; !ok {
		return "", services.New(services.ErrValidation, services.CodeInvalidParameter,
			fmt.Sprintf("invalid preset %q (valid: music, podcast, voiceover, custom)", name), nil).
			With("field", "preset").
			With("value", name)
	}
	return normalized, nil
}

// DisplayName returns the title-cased preset name used in messages.
func (p Preset) DisplayName() string {
	return titleCaser.String(string(p))
}

// DefaultTargetLUFS returns the preset's loudness target.
func (p Preset) DefaultTargetLUFS() float64 {
	if profile, ok := presetProfiles[p]; ok {
		return profile.targetLUFS
	}
	return presetProfiles[PresetMusic].targetLUFS
}

// MasteringParams tunes the mastering graph. Nil pointers take the preset
// defaults.
type MasteringParams struct {
	TargetLUFS       *float64 `json:"target_lufs,omitempty"`
	TruePeak         *float64 `json:"true_peak,omitempty"`
	ApplyCompression *bool    `json:"apply_compression,omitempty"`
	ApplyLimiter     *bool    `json:"apply_limiter,omitempty"`
	OutputGain       *float64 `json:"output_gain,omitempty"`
}

// Mastering is a fully resolved mastering configuration.
type Mastering struct {
	Preset           Preset
	TargetLUFS       float64
	TruePeak         float64
	ApplyCompression bool
	ApplyLimiter     bool
	OutputGain       float64
}

// ResolveMastering applies preset defaults to params and range-checks the
// result.
func ResolveMastering(preset Preset, params MasteringParams) (Mastering, error) {
	m := Mastering{
		Preset:           preset,
		TargetLUFS:       preset.DefaultTargetLUFS(),
		TruePeak:         -1,
		ApplyCompression: true,
		ApplyLimiter:     true,
	}
	if params.TargetLUFS != nil {
		m.TargetLUFS = *params.TargetLUFS
	}
	if params.TruePeak != nil {
		m.TruePeak = *params.TruePeak
	}
	if params.ApplyCompression != nil {
		m.ApplyCompression = *params.ApplyCompression
	}
	if params.ApplyLimiter != nil {
		m.ApplyLimiter = *params.ApplyLimiter
	}
	if params.OutputGain != nil {
		m.OutputGain = *params.OutputGain
	}

	switch {
	case m.TargetLUFS < minTargetLUFS || m.TargetLUFS > maxTargetLUFS:
		return Mastering{}, invalid("target_lufs", m.TargetLUFS, "target LUFS must be between -50 and -5")
	case m.TruePeak < minTruePeak || m.TruePeak > maxTruePeak:
		return Mastering{}, invalid("true_peak", m.TruePeak, "true peak must be between -9 and 0 dBTP")
	case m.OutputGain < -maxGainDB || m.OutputGain > maxGainDB:
		return Mastering{}, invalid("output_gain", m.OutputGain, "output gain must be between -24 and 24 dB")
	}
	return m, nil
}

// Graph renders the mastering filter chain:
// [acompressor,][eq,]loudnorm[,alimiter][,volume].
func (m Mastering) Graph() Chain {
	var chain Chain
	if m.ApplyCompression {
		chain = append(chain, "acompressor=threshold=-18dB:ratio=3:attack=20:release=250")
	}
	eq := presetProfiles[m.Preset].eq
	chain = append(chain, eqFilters[eq]...)
	chain = append(chain, fmt.Sprintf("loudnorm=I=%s:TP=%s:LRA=%s",
		formatFloat(m.TargetLUFS), formatFloat(m.TruePeak), formatFloat(loudnessRange)))
	if m.ApplyLimiter {
		chain = append(chain, fmt.Sprintf("alimiter=limit=%sdB", formatFloat(m.TruePeak)))
	}
	if m.OutputGain != 0 {
		chain = append(chain, fmt.Sprintf("volume=%sdB", formatFloat(m.OutputGain)))
	}
	return chain
}
