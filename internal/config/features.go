package config

import "strings"

// FeatureID identifies an optional host feature.
type FeatureID uint8

const (
	// FeatureEnableSSH installs openssh-server.
	FeatureEnableSSH FeatureID = iota
)

var allFeatures = []FeatureID{FeatureEnableSSH}

func (f FeatureID) String() string {
	switch f {
	case FeatureEnableSSH:
		return "enable-ssh"
	default:
		return "unknown"
	}
}

// FeatureSet is an immutable set of features.
type FeatureSet uint8

// With returns a copy of s including f.
func (s FeatureSet) With(f FeatureID) FeatureSet { return s | 1<<f }

// Without returns a copy of s excluding f.
func (s FeatureSet) Without(f FeatureID) FeatureSet { return s &^ (1 << f) }

// Has reports whether f is in s.
func (s FeatureSet) Has(f FeatureID) bool { return s&(1<<f) != 0 }

// Names returns the names of the members of s.
func (s FeatureSet) Names() []string {
	var out []string
	for _, f := range allFeatures {
		if s.Has(f) {
			out = append(out, f.String())
		}
	}
	return out
}

// ParseFeatures parses feature names. Names it does not recognise are
// returned separately so the caller can warn about them.
func ParseFeatures(values []string) (FeatureSet, []string) {
	var (
		s       FeatureSet
		unknown []string
	)
	for _, name := range SplitList(values) {
		matched := false
		for _, f := range allFeatures {
			if strings.EqualFold(name, f.String()) {
				s = s.With(f)
				matched = true
				break
			}
		}
		if !matched {
			unknown = append(unknown, name)
		}
	}
	return s, unknown
}
