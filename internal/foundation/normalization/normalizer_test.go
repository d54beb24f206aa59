package normalization

import (
	"testing"
)

type mode string

const (
	modeFast mode = "fast"
	modeSlow mode = "slow"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"fast": modeFast,
		"slow": modeSlow,
	}, modeFast)

	tests := []struct {
		raw  string
		want mode
	}{
		{"fast", modeFast},
		{"FAST", modeFast},
		{"  Slow ", modeSlow},
		{"warp", modeFast}, // unknown -> default
		{"", modeFast},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"fast": modeFast,
		"slow": modeSlow,
	}, modeFast)

	if _, err := n.NormalizeWithError("fast"); err != nil {
		t.Errorf("unexpected error for valid value: %v", err)
	}

	if _, err := n.NormalizeWithError("warp"); err == nil {
		t.Error("expected error for unknown value")
	}
}

func TestValidKeysSorted(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"slow": modeSlow,
		"fast": modeFast,
	}, modeFast)

	keys := n.ValidKeys()
	if len(keys) != 2 || keys[0] != "fast" || keys[1] != "slow" {
		t.Errorf("expected sorted keys [fast slow], got %v", keys)
	}
}
