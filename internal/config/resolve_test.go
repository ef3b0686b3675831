package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedUI answers prompts from a queue keyed by title and records what it was asked.
type scriptedUI struct {
	t       *testing.T
	asked   []string
	answers map[string]any
	failOn  string
}

func (s *scriptedUI) next(title string) (any, error) {
	s.asked = append(s.asked, title)
	if title == s.failOn {
		return nil, ErrCancelled
	}
	return s.answers[title], nil
}

func (s *scriptedUI) Note(title, _ string) error {
	_, err := s.next(title)
	return err
}

func (s *scriptedUI) Confirm(title, _ string, value *bool) error {
	v, err := s.next(title)
	if b, ok := v.(bool); ok {
		*value = b
	}
	return err
}

func (s *scriptedUI) Select(title, _ string, options []string, value *string) error {
	v, err := s.next(title)
	if str, ok := v.(string); ok {
		require.Contains(s.t, options, str)
		*value = str
	}
	return err
}

func (s *scriptedUI) MultiSelect(title, _ string, _ []string, value *[]string) error {
	v, err := s.next(title)
	if list, ok := v.([]string); ok {
		*value = list
	}
	return err
}

func (s *scriptedUI) Input(title, _ string, value *string, validate func(string) error) error {
	v, err := s.next(title)
	if str, ok := v.(string); ok {
		*value = str
	}
	if err == nil && validate != nil {
		err = validate(*value)
	}
	return err
}

func (s *scriptedUI) SecretInput(title, desc string, value *string, validate func(string) error) error {
	return s.Input(title, desc, value, validate)
}

const (
	qCustomize  = "Would you like to customize the configuration for your CKAN installation?"
	qSSH        = "Would you like to enable SSH? (optional)"
	qVersion    = "What CKAN version would you like to install?"
	qOther      = "Which CKAN version?"
	qSysadmin   = "Would you like to customize the sysadmin account?"
	qUsername   = "Sysadmin username"
	qPassword   = "Sysadmin password"
	qEmail      = "Sysadmin email"
	qExtensions = "Which extensions would you like to install?"
	qDRUF       = "Would you like to enable DRUF mode for DataPusher+?"
	qBegin      = "Would you like to begin the installation?"
)

func TestNonInteractiveVersionMatchesPromptDefault(t *testing.T) {
	cfg, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true})
	require.NoError(t, err)
	assert.Equal(t, "2.11.3", cfg.CKANVersion)
	assert.Equal(t, CKANVersionChoices[0], cfg.CKANVersion)
}

func TestResolveSkipInteractiveNeverPrompts(t *testing.T) {
	ui := &scriptedUI{t: t}
	r := Resolver{UI: ui, Username: "ckan"}

	cfg, err := r.Resolve(Flags{SkipInteractive: true, Extensions: []string{"DataStore"}})
	require.NoError(t, err)

	assert.Empty(t, ui.asked)
	assert.Equal(t, NewExtensionSet(DataStore), cfg.Extensions)
	assert.Equal(t, DefaultCKANVersion, cfg.CKANVersion)
	assert.Equal(t, Sysadmin{Username: "ckan", Password: "password", Email: "ckan@localhost"}, cfg.Sysadmin)
	assert.False(t, cfg.EnableSSH)
}

func TestResolveSkipInteractiveWithNilUI(t *testing.T) {
	cfg, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true, SkipRun: true})
	require.NoError(t, err)
	assert.True(t, cfg.SkipRun)
}

func TestResolveClosesDataPusherDependencies(t *testing.T) {
	cfg, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true, Extensions: []string{"DataPusher+"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"DataStore", "ckanext-scheming", "DataPusher+"}, cfg.Extensions.Names())
}

func TestResolveUnknownExtensionIsFatal(t *testing.T) {
	_, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true, Extensions: []string{"spatial"}})
	assert.ErrorIs(t, err, ErrUnknownExtension)
}

func TestResolveFeatures(t *testing.T) {
	cfg, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true, Features: []string{"enable-ssh", "bogus"}})
	require.NoError(t, err)
	assert.True(t, cfg.EnableSSH)
}

func TestResolvePresetLayering(t *testing.T) {
	r := Resolver{Username: "ckan"}

	cfg, err := r.Resolve(Flags{SkipInteractive: true, Preset: "dathere-default"})
	require.NoError(t, err)
	assert.True(t, cfg.EnableSSH)
	assert.Equal(t, []string{"DataStore", "ckanext-scheming", "DataPusher+"}, cfg.Extensions.Names())

	cfg, err = r.Resolve(Flags{SkipInteractive: true, Preset: "dathere-default", Extensions: []string{"DataStore"}, CKANVersion: "2.10.8"})
	require.NoError(t, err)
	assert.Equal(t, NewExtensionSet(DataStore), cfg.Extensions)
	assert.Equal(t, "2.10.8", cfg.CKANVersion)

	cfg, err = r.Resolve(Flags{SkipInteractive: true, Preset: "ckan-only"})
	require.NoError(t, err)
	assert.True(t, cfg.Extensions.Empty())

	_, err = r.Resolve(Flags{SkipInteractive: true, Preset: "everything"})
	assert.Error(t, err)
}

func TestResolveAnswersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ckan_version: 2.10.8
ssh: true
sysadmin:
  username: admin
  password: changeme123
extensions: [ckanext-scheming]
skip_run: true
`), 0o644))

	cfg, err := Resolver{Username: "ckan"}.Resolve(Flags{SkipInteractive: true, AnswersFile: path, CKANVersion: "2.11.3"})
	require.NoError(t, err)
	assert.Equal(t, "2.11.3", cfg.CKANVersion, "flags win over the answers file")
	assert.True(t, cfg.EnableSSH)
	assert.Equal(t, Sysadmin{Username: "admin", Password: "changeme123", Email: "admin@localhost"}, cfg.Sysadmin)
	assert.Equal(t, NewExtensionSet(Scheming), cfg.Extensions)
	assert.True(t, cfg.SkipRun)
}

func TestLoadAnswersRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ckan_versoin: 2.10.8\n"), 0o644))
	_, err := LoadAnswers(path)
	assert.Error(t, err)
}

func TestLoadAnswersEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	a, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, Answers{}, a)
}

func TestResolveInteractiveDeclineCustomize(t *testing.T) {
	ui := &scriptedUI{t: t, answers: map[string]any{qCustomize: false}}
	cfg, err := Resolver{UI: ui, Username: "ckan"}.Resolve(Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Current configuration", qCustomize}, ui.asked)
	assert.Equal(t, Defaults("ckan").CKANVersion, cfg.CKANVersion)
}

func TestResolveInteractiveCustomize(t *testing.T) {
	ui := &scriptedUI{t: t, answers: map[string]any{
		qCustomize:  true,
		qSSH:        true,
		qVersion:    "Other",
		qOther:      " 2.9.11 ",
		qSysadmin:   true,
		qUsername:   "admin",
		qPassword:   "supersecret",
		qExtensions: []string{"DataPusher+"},
		qDRUF:       true,
	}}
	cfg, err := Resolver{UI: ui, Username: "ckan"}.Resolve(Flags{})
	require.NoError(t, err)

	assert.True(t, cfg.EnableSSH)
	assert.Equal(t, "2.9.11", cfg.CKANVersion)
	assert.Equal(t, Sysadmin{Username: "admin", Password: "supersecret", Email: "admin@localhost"}, cfg.Sysadmin)
	assert.Equal(t, []string{"DataStore", "ckanext-scheming", "DataPusher+"}, cfg.Extensions.Names())
	assert.True(t, cfg.DRUFMode)
}

func TestResolveInteractiveShortPassword(t *testing.T) {
	ui := &scriptedUI{t: t, answers: map[string]any{
		qCustomize: true,
		qSysadmin:  true,
		qPassword:  "short",
	}}
	_, err := Resolver{UI: ui, Username: "ckan"}.Resolve(Flags{})
	assert.Error(t, err)
}

func TestResolveInteractiveSkipsDRUFWithoutDataPusher(t *testing.T) {
	ui := &scriptedUI{t: t, answers: map[string]any{
		qCustomize:  true,
		qExtensions: []string{"DataStore"},
	}}
	_, err := Resolver{UI: ui, Username: "ckan"}.Resolve(Flags{})
	require.NoError(t, err)
	assert.NotContains(t, ui.asked, qDRUF)
}

func TestResolveCancelled(t *testing.T) {
	ui := &scriptedUI{t: t, answers: map[string]any{qCustomize: true}, failOn: qVersion}
	cfg, err := Resolver{UI: ui, Username: "ckan"}.Resolve(Flags{})
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, InstallationConfig{}, cfg)
}

func TestConfirmBegin(t *testing.T) {
	r := Resolver{Username: "ckan"}
	ok, err := r.ConfirmBegin(Flags{SkipInteractive: true}, Defaults("ckan"))
	require.NoError(t, err)
	assert.True(t, ok)

	ui := &scriptedUI{t: t, answers: map[string]any{qBegin: false}}
	r.UI = ui
	ok, err = r.ConfirmBegin(Flags{}, Defaults("ckan"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	cfg := Defaults("ckan")
	cfg.EnableSSH = true
	cfg.Extensions = NewExtensionSet(DataStore, Scheming, DataPusherPlus)
	s := Summary(cfg)
	assert.Contains(t, s, "openssh-server")
	assert.Contains(t, s, "CKAN v2.11.3")
	assert.Contains(t, s, "DataPusher+")
	assert.Contains(t, s, "Disable DRUF mode")
}
