package config

import (
	"errors"
	"fmt"
	"strings"
)

// ExtensionID identifies an optional CKAN extension the installer knows how to set up.
type ExtensionID uint8

const (
	DataStore ExtensionID = iota
	Scheming
	DataPusherPlus
)

// AllExtensions lists every extension in installation order.
var AllExtensions = []ExtensionID{DataStore, Scheming, DataPusherPlus}

// ErrUnknownExtension is returned for extension names the installer does not support.
var ErrUnknownExtension = errors.New("unknown extension")

// String returns the display name used on the command line and in prompts.
func (e ExtensionID) String() string {
	switch e {
	case DataStore:
		return "DataStore"
	case Scheming:
		return "ckanext-scheming"
	case DataPusherPlus:
		return "DataPusher+"
	default:
		return fmt.Sprintf("ExtensionID(%d)", uint8(e))
	}
}

// PluginName returns the name written into ckan.plugins.
func (e ExtensionID) PluginName() string {
	switch e {
	case DataStore:
		return "datastore"
	case Scheming:
		return "scheming_datasets"
	case DataPusherPlus:
		return "datapusher_plus"
	default:
		return ""
	}
}

// requires lists the extensions e cannot work without.
func (e ExtensionID) requires() []ExtensionID {
	if e == DataPusherPlus {
		return []ExtensionID{DataStore, Scheming}
	}
	return nil
}

// ParseExtension maps a user-supplied name to an ExtensionID. Matching is case-insensitive.
func ParseExtension(name string) (ExtensionID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "datastore":
		return DataStore, nil
	case "ckanext-scheming", "scheming", "scheming_datasets":
		return Scheming, nil
	case "datapusher+", "datapusher-plus", "datapusher_plus":
		return DataPusherPlus, nil
	}
	return 0, fmt.Errorf("%w %q (valid: %s)", ErrUnknownExtension, name, strings.Join(ExtensionNames(), ", "))
}

// ExtensionNames returns the display names of every supported extension.
func ExtensionNames() []string {
	names := make([]string, len(AllExtensions))
	for i, e := range AllExtensions {
		names[i] = e.String()
	}
	return names
}

// ExtensionSet is an immutable set of extensions.
type ExtensionSet uint8

// NewExtensionSet builds a set from ids.
func NewExtensionSet(ids ...ExtensionID) ExtensionSet {
	var s ExtensionSet
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// With returns a copy of s including id.
func (s ExtensionSet) With(id ExtensionID) ExtensionSet {
	return s | 1<<id
}

// Has reports whether id is in s.
func (s ExtensionSet) Has(id ExtensionID) bool {
	return s&(1<<id) != 0
}

// Empty reports whether s has no members.
func (s ExtensionSet) Empty() bool {
	return s == 0
}

// IDs returns the members of s in installation order.
func (s ExtensionSet) IDs() []ExtensionID {
	var out []ExtensionID
	for _, id := range AllExtensions {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Names returns the display names of the members of s in installation order.
func (s ExtensionSet) Names() []string {
	ids := s.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// WithDependencies returns s plus every extension its members require.
func (s ExtensionSet) WithDependencies() ExtensionSet {
	out := s
	for _, id := range s.IDs() {
		for _, dep := range id.requires() {
			out = out.With(dep)
		}
	}
	return out
}

// ParseExtensions parses names, each of which may itself hold several
// space or comma separated entries.
func ParseExtensions(values []string) (ExtensionSet, error) {
	var s ExtensionSet
	for _, name := range SplitList(values) {
		id, err := ParseExtension(name)
		if err != nil {
			return 0, err
		}
		s = s.With(id)
	}
	return s, nil
}

// SplitList flattens values split on spaces and commas, dropping empty entries.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	return out
}
