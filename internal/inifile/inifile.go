// Package inifile patches sectioned key=value configuration files such as
// /etc/ckan/default/ckan.ini.
//
// A Document only touches the keys it is told to touch: unknown sections,
// unknown keys and their comments survive a load/save cycle. Writing an
// absent section is refused with ErrSectionMissing because inventing a
// section would silently misconfigure the target.
//
// Two constructs are refused by Load with ErrUnsupportedSyntax since the
// parser cannot write them back unchanged: indented continuation lines
// (Python multi-line values) and values wrapped in backticks or triple
// quotes, which the parser unwraps.
package inifile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"gopkg.in/ini.v1"

	"ckan-devstaller/internal/logger"
)

// ErrSectionMissing is wrapped by every SectionError.
var ErrSectionMissing = errors.New("config section missing")

// SectionError names the section that was expected but not found.
type SectionError struct {
	Path    string
	Section string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section [%s] not found in %s", e.Section, e.Path)
}

func (e *SectionError) Unwrap() error { return ErrSectionMissing }

// ErrUnsupportedSyntax is returned by Load for files that would not survive a save.
var ErrUnsupportedSyntax = errors.New("unsupported config syntax")

// Python's configparser rejects keys before the first header, so the DEFAULT
// header is always written. Values are written as "key = value".
func init() {
	ini.DefaultHeader = true
	ini.PrettyFormat = false
	ini.PrettyEqual = true
}

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	KeyValueDelimiters:      "=",
	PreserveSurroundedQuote: true,
}

// Document is an in-memory view of one configuration file.
type Document struct {
	path     string
	file     *ini.File
	original []byte
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := checkSyntax(path, raw); err != nil {
		return nil, err
	}
	f, err := ini.LoadSources(loadOptions, raw)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &Document{path: path, file: f, original: raw}, nil
}

// checkSyntax rejects continuation lines and quoted values the parser would rewrite.
func checkSyntax(path string, raw []byte) error {
	afterKey := false
	for n, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == ';' {
			continue
		}
		if afterKey && (line[0] == ' ' || line[0] == '\t') {
			return fmt.Errorf("%s:%d: indented continuation lines are not supported: %w", path, n+1, ErrUnsupportedSyntax)
		}
		if trimmed[0] == '[' {
			afterKey = false
			continue
		}
		if _, value, ok := strings.Cut(trimmed, "="); ok {
			value = strings.TrimSpace(value)
			if strings.HasPrefix(value, "`") || strings.HasPrefix(value, `"""`) {
				return fmt.Errorf("%s:%d: values wrapped in backticks or triple quotes are not supported: %w", path, n+1, ErrUnsupportedSyntax)
			}
			afterKey = true
		}
	}
	return nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

func (d *Document) section(name string) (*ini.Section, error) {
	sec, err := d.file.GetSection(name)
	if err != nil {
		return nil, &SectionError{Path: d.path, Section: name}
	}
	return sec, nil
}

// Get returns the value of key declared in section itself. Values inherited
// from DEFAULT are not reported.
func (d *Document) Get(section, key string) (string, bool, error) {
	sec, err := d.section(section)
	if err != nil {
		return "", false, err
	}
	v, ok := sec.KeysHash()[key]
	return v, ok, nil
}

// Set adds or overwrites key in section.
func (d *Document) Set(section, key, value string) error {
	sec, err := d.section(section)
	if err != nil {
		return err
	}
	if _, err := sec.NewKey(key, value); err != nil {
		return fmt.Errorf("set %s.%s: %w", section, key, err)
	}
	return nil
}

// SetAll applies every key/value pair in values to section, in the order given by keys.
func (d *Document) SetAll(section string, values []KeyValue) error {
	for _, kv := range values {
		if err := d.Set(section, kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// KeyValue is one ordered assignment for SetAll.
type KeyValue struct {
	Key   string
	Value string
}

// AppendToList appends token to the space separated list stored under key.
func (d *Document) AppendToList(section, key, token string) error {
	return d.AppendToListSep(section, key, token, " ")
}

// AppendToListSep appends token to the sep separated list under key unless
// it is already one of the list's items. An absent key starts as an empty list.
func (d *Document) AppendToListSep(section, key, token, sep string) error {
	current, _, err := d.Get(section, key)
	if err != nil {
		return err
	}
	if containsToken(current, token, sep) {
		logger.Debug("[DEBUG] %s already lists %q under [%s] %s\n", d.path, token, section, key)
		return nil
	}
	next := token
	if strings.TrimSpace(current) != "" {
		next = strings.TrimRight(current, " ") + sep + token
	}
	return d.Set(section, key, next)
}

func containsToken(list, token, sep string) bool {
	var items []string
	if strings.TrimSpace(sep) == "" {
		items = strings.Fields(list)
	} else {
		items = strings.Split(list, sep)
	}
	for _, item := range items {
		if strings.TrimSpace(item) == token {
			return true
		}
	}
	return false
}

// Bytes renders the document as it would be written.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render config %s: %w", d.path, err)
	}
	return buf.Bytes(), nil
}

// Diff returns a unified diff between the loaded file and the current document.
func (d *Document) Diff() (string, error) {
	rendered, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return udiff.Unified(d.path, d.path, string(d.original), string(rendered)), nil
}

// Save writes the document back to the file it was loaded from.
func (d *Document) Save() error {
	return d.SaveAs(d.path)
}

// SaveAs writes the document to path through a temporary sibling file that
// is renamed into place, so readers never observe a half-written file.
func (d *Document) SaveAs(path string) error {
	rendered, err := d.Bytes()
	if err != nil {
		return err
	}
	if diff := udiff.Unified(d.path, path, string(d.original), string(rendered)); diff != "" {
		logger.Debug("[DEBUG] Writing %s:\n%s\n", path, diff)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(rendered); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	if path == d.path {
		d.original = rendered
	}
	return nil
}

// Patch loads path, applies fn and saves the result. Nothing is written when fn fails.
func Patch(path string, fn func(*Document) error) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return doc.Save()
}
