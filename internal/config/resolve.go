package config

import (
	"errors"
	"fmt"
	"strings"

	"ckan-devstaller/internal/logger"
)

// ErrCancelled is returned when the operator aborts a prompt.
var ErrCancelled = errors.New("cancelled by user")

const otherVersion = "Other"

// Prompter asks the operator questions. Each method blocks until answered
// and stores the answer in the pointed-to value, which also holds the default.
type Prompter interface {
	Note(title, body string) error
	Confirm(title, description string, value *bool) error
	Select(title, description string, options []string, value *string) error
	MultiSelect(title, description string, options []string, value *[]string) error
	Input(title, description string, value *string, validate func(string) error) error
	SecretInput(title, description string, value *string, validate func(string) error) error
}

// Flags carries the command-line choices that feed resolution.
type Flags struct {
	SkipInteractive bool
	SkipRun         bool
	CKANVersion     string
	Extensions      []string
	Features        []string
	Preset          string
	AnswersFile     string
}

// Resolver turns flags, presets, an answers file and prompts into an InstallationConfig.
type Resolver struct {
	UI Prompter
	// Username is the operator's login name, used for the default sysadmin.
	Username string
}

// Base layers the defaults, the preset, the answers file and the flags, in that order.
func (r Resolver) Base(flags Flags) (InstallationConfig, error) {
	cfg := Defaults(r.Username)
	if err := applyPreset(flags.Preset, &cfg); err != nil {
		return InstallationConfig{}, err
	}

	var unknown []string
	if flags.AnswersFile != "" {
		answers, err := LoadAnswers(flags.AnswersFile)
		if err != nil {
			return InstallationConfig{}, err
		}
		if unknown, err = answers.apply(&cfg); err != nil {
			return InstallationConfig{}, fmt.Errorf("answers file %s: %w", flags.AnswersFile, err)
		}
	}

	if flags.CKANVersion != "" {
		cfg.CKANVersion = flags.CKANVersion
	}
	if len(flags.Extensions) > 0 {
		exts, err := ParseExtensions(flags.Extensions)
		if err != nil {
			return InstallationConfig{}, err
		}
		cfg.Extensions = exts
	}
	if len(flags.Features) > 0 {
		cfg.Features, unknown = ParseFeatures(flags.Features)
	}
	for _, name := range unknown {
		logger.Warn("[WARN] Ignoring unknown feature %q\n", name)
	}
	cfg.SkipRun = cfg.SkipRun || flags.SkipRun

	return finalize(cfg), nil
}

// Resolve returns the configuration for this run. With SkipInteractive the
// Prompter is never used.
func (r Resolver) Resolve(flags Flags) (InstallationConfig, error) {
	cfg, err := r.Base(flags)
	if err != nil {
		return InstallationConfig{}, err
	}
	if flags.SkipInteractive {
		return cfg, nil
	}
	if r.UI == nil {
		return InstallationConfig{}, errors.New("interactive configuration requires a prompt UI")
	}

	if err := r.UI.Note("Current configuration", Summary(cfg)); err != nil {
		return InstallationConfig{}, err
	}
	customize := false
	if err := r.UI.Confirm("Would you like to customize the configuration for your CKAN installation?", "", &customize); err != nil {
		return InstallationConfig{}, err
	}
	if !customize {
		return cfg, nil
	}

	for _, ask := range []func(*InstallationConfig) error{
		r.askSSH,
		r.askVersion,
		r.askSysadmin,
		r.askExtensions,
		r.askDRUF,
	} {
		if err := ask(&cfg); err != nil {
			return InstallationConfig{}, err
		}
	}
	return finalize(cfg), nil
}

// ConfirmBegin asks whether to start installing. It is always true with SkipInteractive.
func (r Resolver) ConfirmBegin(flags Flags, cfg InstallationConfig) (bool, error) {
	if flags.SkipInteractive {
		return true, nil
	}
	if err := r.UI.Note("Installation plan", Summary(cfg)); err != nil {
		return false, err
	}
	begin := true
	if err := r.UI.Confirm("Would you like to begin the installation?", "", &begin); err != nil {
		return false, err
	}
	return begin, nil
}

func (r Resolver) askSSH(cfg *InstallationConfig) error {
	enable := cfg.Features.Has(FeatureEnableSSH)
	if err := r.UI.Confirm("Would you like to enable SSH? (optional)",
		"Installs openssh-server so this machine can be reached over SSH.", &enable); err != nil {
		return err
	}
	if enable {
		cfg.Features = cfg.Features.With(FeatureEnableSSH)
	} else {
		cfg.Features = cfg.Features.Without(FeatureEnableSSH)
	}
	return nil
}

func (r Resolver) askVersion(cfg *InstallationConfig) error {
	options := append(append([]string{}, CKANVersionChoices...), otherVersion)
	choice := otherVersion
	for _, v := range CKANVersionChoices {
		if v == cfg.CKANVersion {
			choice = v
		}
	}
	if err := r.UI.Select("What CKAN version would you like to install?", "", options, &choice); err != nil {
		return err
	}
	if choice != otherVersion {
		cfg.CKANVersion = choice
		return nil
	}
	version := cfg.CKANVersion
	if err := r.UI.Input("Which CKAN version?", "For example 2.11.3 or 2.10.8.", &version, notBlank("version")); err != nil {
		return err
	}
	cfg.CKANVersion = strings.TrimSpace(version)
	return nil
}

func (r Resolver) askSysadmin(cfg *InstallationConfig) error {
	custom := false
	desc := fmt.Sprintf("Default: username %q, password %q, email %q.",
		cfg.Sysadmin.Username, cfg.Sysadmin.Password, cfg.Sysadmin.Email)
	if err := r.UI.Confirm("Would you like to customize the sysadmin account?", desc, &custom); err != nil {
		return err
	}
	if !custom {
		return nil
	}

	admin := cfg.Sysadmin
	if err := r.UI.Input("Sysadmin username", "", &admin.Username, notBlank("username")); err != nil {
		return err
	}
	defaultPassword := admin.Password
	if err := r.UI.SecretInput("Sysadmin password", "At least 8 characters.", &admin.Password, func(s string) error {
		if s != defaultPassword && len(s) < 8 {
			return errors.New("password must be at least 8 characters")
		}
		return nil
	}); err != nil {
		return err
	}
	if admin.Email == cfg.Sysadmin.Username+"@localhost" {
		admin.Email = admin.Username + "@localhost"
	}
	if err := r.UI.Input("Sysadmin email", "", &admin.Email, validEmail); err != nil {
		return err
	}
	cfg.Sysadmin = admin
	return nil
}

func (r Resolver) askExtensions(cfg *InstallationConfig) error {
	selected := cfg.Extensions.Names()
	if err := r.UI.MultiSelect("Which extensions would you like to install?",
		"DataPusher+ also installs DataStore and ckanext-scheming.", ExtensionNames(), &selected); err != nil {
		return err
	}
	exts, err := ParseExtensions(selected)
	if err != nil {
		return err
	}
	cfg.Extensions = exts.WithDependencies()
	return nil
}

func (r Resolver) askDRUF(cfg *InstallationConfig) error {
	if !cfg.Extensions.Has(DataPusherPlus) {
		return nil
	}
	return r.UI.Confirm("Would you like to enable DRUF mode for DataPusher+?",
		"Dataset Resource Upload First lets you upload a resource before filling in the dataset metadata.", &cfg.DRUFMode)
}

// finalize derives the fields that follow from others.
func finalize(cfg InstallationConfig) InstallationConfig {
	if closed := cfg.Extensions.WithDependencies(); closed != cfg.Extensions {
		logger.Info("[INFO] DataPusher+ requires DataStore and ckanext-scheming, enabling them\n")
		cfg.Extensions = closed
	}
	cfg.EnableSSH = cfg.Features.Has(FeatureEnableSSH)
	if !cfg.Extensions.Has(DataPusherPlus) {
		cfg.DRUFMode = false
	}
	return cfg
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func validEmail(s string) error {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return errors.New("enter a valid email address")
	}
	return nil
}
