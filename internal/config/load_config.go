package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Answers is the YAML answers file that pre-supplies installation choices,
// e.g.
//
//	ckan_version: 2.11.3
//	ssh: true
//	sysadmin:
//	  username: admin
//	  password: changeme123
//	  email: admin@example.org
//	extensions: [DataStore, ckanext-scheming]
//	druf_mode: false
//
// Omitted fields leave the current value alone.
type Answers struct {
	SSH         *bool     `yaml:"ssh"`
	CKANVersion string    `yaml:"ckan_version"`
	Sysadmin    *Sysadmin `yaml:"sysadmin"`
	Extensions  []string  `yaml:"extensions"`
	Features    []string  `yaml:"features"`
	DRUFMode    *bool     `yaml:"druf_mode"`
	SkipRun     *bool     `yaml:"skip_run"`
}

// LoadAnswers reads and strictly parses the answers file at path.
func LoadAnswers(path string) (Answers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Answers{}, fmt.Errorf("failed to read answers file: %w", err)
	}
	var a Answers
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return Answers{}, fmt.Errorf("failed to unmarshal answers file %s: %w", path, err)
	}
	return a, nil
}

// apply overlays the answers onto cfg.
func (a Answers) apply(cfg *InstallationConfig) ([]string, error) {
	var unknown []string
	if a.CKANVersion != "" {
		cfg.CKANVersion = a.CKANVersion
	}
	if a.Sysadmin != nil {
		if a.Sysadmin.Username != "" {
			cfg.Sysadmin.Username = a.Sysadmin.Username
			cfg.Sysadmin.Email = a.Sysadmin.Username + "@localhost"
		}
		if a.Sysadmin.Password != "" {
			cfg.Sysadmin.Password = a.Sysadmin.Password
		}
		if a.Sysadmin.Email != "" {
			cfg.Sysadmin.Email = a.Sysadmin.Email
		}
	}
	if a.Extensions != nil {
		exts, err := ParseExtensions(a.Extensions)
		if err != nil {
			return nil, err
		}
		cfg.Extensions = exts
	}
	if a.Features != nil {
		cfg.Features, unknown = ParseFeatures(a.Features)
	}
	if a.SSH != nil {
		if *a.SSH {
			cfg.Features = cfg.Features.With(FeatureEnableSSH)
		} else {
			cfg.Features = cfg.Features.Without(FeatureEnableSSH)
		}
	}
	if a.DRUFMode != nil {
		cfg.DRUFMode = *a.DRUFMode
	}
	if a.SkipRun != nil {
		cfg.SkipRun = *a.SkipRun
	}
	return unknown, nil
}
