package installer

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ckan-devstaller/internal/config"
	"ckan-devstaller/internal/inifile"
	"ckan-devstaller/internal/pipeline"
	"ckan-devstaller/internal/runner"
	"ckan-devstaller/internal/state"
)

const testIni = `[DEFAULT]
debug = false

[app:main]
use = egg:ckan
ckan.plugins = activity
`

const testResourceFormats = `[[["AAC","Advanced Audio Coding","audio/mp4",[]],["CSV","Comma Separated Values File","text/csv",[]]]]`

type fixture struct {
	in     *Installer
	rec    *runner.Recorder
	paths  Paths
	dpkg   string
	failOn string
}

func newFixture(t *testing.T, cfg config.InstallationConfig) *fixture {
	t.Helper()
	root := t.TempDir()
	paths := Paths{
		User:       "ckan",
		Home:       filepath.Join(root, "home", "ckan"),
		CKANLib:    filepath.Join(root, "usr", "lib", "ckan"),
		EtcDir:     filepath.Join(root, "etc", "ckan"),
		StorageDir: filepath.Join(root, "var", "lib", "ckan", "default"),
		QSVBin:     filepath.Join(root, "usr", "local", "bin", "qsvdp"),
	}
	require.NoError(t, os.MkdirAll(paths.Home, 0o755))
	require.NoError(t, os.MkdirAll(paths.ConfigDir(), 0o755))
	require.NoError(t, os.WriteFile(paths.CKANIni(), []byte(testIni), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.ResourceFormats()), 0o755))
	require.NoError(t, os.WriteFile(paths.ResourceFormats(), []byte(testResourceFormats), 0o644))

	f := &fixture{paths: paths, dpkg: "ii  curl  7.81.0  amd64  command line tool\n"}
	f.rec = &runner.Recorder{Handler: f.handle(t)}
	f.in = &Installer{
		Config: cfg,
		Paths:  paths,
		Waits:  WaitOptions{Interval: 10 * time.Millisecond, FileTimeout: time.Second, DBTimeout: time.Second},
		WaitForDB: func(context.Context, time.Duration, time.Duration) error {
			return nil
		},
		State:     state.New(),
		StatePath: filepath.Join(paths.Home, state.Dir, state.FileName),
	}
	return f
}

// handle simulates the side effects the installer relies on.
func (f *fixture) handle(t *testing.T) func(runner.Cmd, runner.Options) (runner.Result, error) {
	return func(cmd runner.Cmd, opts runner.Options) (runner.Result, error) {
		line := cmd.String()
		if f.failOn != "" && strings.Contains(line, f.failOn) {
			return runner.Result{ExitCode: 1}, &runner.ExitError{Cmd: cmd, Code: 1, Stderr: "boom"}
		}
		switch {
		case line == "dpkg -l":
			return runner.Result{Stdout: []byte(f.dpkg)}, nil
		case cmd.Name == "curl":
			dest := argAfter(cmd.Args, "-o")
			if strings.HasSuffix(dest, ".zip") {
				writeZip(t, dest, map[string]string{qsvBinaryInArchive: "#!/bin/sh\n", "qsv": "#!/bin/sh\n"})
			} else {
				require.NoError(t, os.WriteFile(dest, []byte("bin"), 0o644))
			}
		case cmd.Name == "git" && len(cmd.Args) > 0 && cmd.Args[0] == "clone":
			require.NoError(t, os.MkdirAll(cmd.Args[len(cmd.Args)-1], 0o755))
		case strings.HasPrefix(line, "sudo docker ps"):
			return runner.Result{Stdout: []byte("3f2a9c\n")}, nil
		case strings.HasSuffix(line, "datastore set-permissions"):
			return runner.Result{Stdout: []byte("GRANT SELECT ON ALL TABLES TO datastore_default;\n")}, nil
		case strings.Contains(line, "user token add"):
			return runner.Result{Stdout: []byte("API Token created:\n\tabc.def-123\n")}, nil
		}
		return runner.Result{}, nil
	}
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, body := range files {
		h := &zip.FileHeader{Name: name, Method: zip.Deflate}
		h.SetMode(0o755)
		w, err := zw.CreateHeader(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func fullConfig() config.InstallationConfig {
	cfg := config.Defaults("ckan")
	cfg.EnableSSH = true
	cfg.Extensions = config.NewExtensionSet(config.DataStore, config.Scheming, config.DataPusherPlus)
	cfg.SkipRun = true
	return cfg
}

func indexOf(t *testing.T, cmds []string, substr string) int {
	t.Helper()
	for i, c := range cmds {
		if strings.Contains(c, substr) {
			return i
		}
	}
	t.Fatalf("no command containing %q in %v", substr, cmds)
	return -1
}

func TestStepsFollowConfiguration(t *testing.T) {
	in := &Installer{Config: config.Defaults("ckan"), Paths: DefaultPaths("ckan", "/home/ckan")}
	steps := in.Steps()

	var ordinals []string
	skipped := map[string]bool{}
	for _, s := range steps {
		ordinals = append(ordinals, s.Ordinal)
		skipped[s.Description] = s.Skip
	}
	assert.Equal(t, []string{"1.", "2.", "2.", "3.", "4.", "5.", "5.", "6.", "7.", "8.", "9.", "10."}, ordinals)
	assert.True(t, skipped["Installing openssh-server"])
	assert.True(t, skipped["Enabling the DataStore plugin"])
	assert.True(t, skipped["Installing the DataPusher+ extension"])
	assert.False(t, skipped["Running CKAN instance"])
	assert.Equal(t, "Installing CKAN 2.11.3", steps[7].Description)

	in.Config = fullConfig()
	for _, s := range in.Steps() {
		if s.Description == "Running CKAN instance" {
			assert.True(t, s.Skip)
		} else {
			assert.False(t, s.Skip, s.Description)
		}
	}
}

func TestInstallFullStack(t *testing.T) {
	f := newFixture(t, fullConfig())
	ec := runner.NewExecContext(f.rec, f.paths.Home)

	require.NoError(t, f.in.Run(context.Background(), ec))
	cmds := f.rec.Commands()

	order := []string{
		"sudo apt update -y",
		"sudo apt upgrade -y",
		"sudo apt install curl -y",
		"sudo apt install openssh-server -y",
		"get-docker.sh",
		"ahoy-bin-linux-amd64",
		"git clone " + ComposeRepo,
		"git switch ckan-devstaller",
		"sudo ../ahoy up",
		"python3 -m venv",
		"ckan[requirements]",
		"db init",
		"sysadmin add ckan",
		"datastore set-permissions",
		"psql -U ckan_default --set ON_ERROR_STOP=1",
		"ckanext-scheming.git",
		"datapusher-plus.git",
		"sudo install -m 0755",
		"sudo locale-gen en_US.UTF-8",
		"user token add ckan dpplus",
		"ckanext.datapusher_plus.api_token=abc.def-123",
		"db upgrade -p datapusher_plus",
	}
	last := -1
	for _, substr := range order {
		i := indexOf(t, cmds, substr)
		assert.Greater(t, i, last, substr)
		last = i
	}
	assert.Zero(t, f.rec.Count(" run"), "skip-run leaves CKAN stopped")

	for _, c := range f.rec.Calls() {
		switch {
		case c.Cmd.String() == "sudo apt upgrade -y":
			assert.True(t, c.Opts.IgnoreExitStatus)
		case strings.Contains(c.Cmd.String(), "api_token="):
			assert.Equal(t, "en_US.UTF-8", c.Opts.Env["LC_ALL"])
			assert.Equal(t, f.paths.Venv(), c.Opts.Env["VIRTUAL_ENV"])
		case strings.Contains(c.Cmd.String(), "sudo ../ahoy up"):
			assert.Equal(t, f.paths.ComposeDir(), c.Opts.Dir)
		case strings.Contains(c.Cmd.String(), "install -r requirements.txt"):
			assert.Equal(t, filepath.Join(f.paths.SrcDir(), "datapusher-plus"), c.Opts.Dir)
		}
	}

	doc, err := inifile.Load(f.paths.CKANIni())
	require.NoError(t, err)
	plugins, _, err := doc.Get(AppSection, "ckan.plugins")
	require.NoError(t, err)
	assert.Equal(t, "activity datastore scheming_datasets datapusher_plus", plugins)
	druf, _, _ := doc.Get(AppSection, "ckanext.datapusher_plus.enable_druf")
	assert.Equal(t, "false", druf)
	qsv, _, _ := doc.Get(AppSection, "ckanext.datapusher_plus.qsv_bin")
	assert.Equal(t, f.paths.QSVBin, qsv)

	env, err := os.ReadFile(filepath.Join(f.paths.ComposeDir(), ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(env), `PROJECT_NAME="ckan-devstaller-project"`)

	perms, err := os.ReadFile(f.paths.InHome("permissions.sql"))
	require.NoError(t, err)
	assert.Equal(t, "GRANT SELECT ON ALL TABLES TO datastore_default;\n", string(perms))

	formats, err := os.ReadFile(f.paths.ResourceFormats())
	require.NoError(t, err)
	assert.Contains(t, string(formats), `["TAB","Tab Separated Values File","text/tab-separated-values",[]]`)

	info, err := os.Stat(f.paths.Ahoy())
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100)

	saved, err := state.Load(f.in.StatePath)
	require.NoError(t, err)
	assert.Equal(t, "2.11.3", saved.CKANVersion)
	assert.Contains(t, saved.Artifacts, f.paths.Ahoy())
	assert.Contains(t, saved.Artifacts, f.paths.QSVBin)
	assert.Contains(t, saved.CompletedSteps, "Installing the DataPusher+ extension")
	assert.NotContains(t, saved.CompletedSteps, "Running CKAN instance")
}

func TestInstallSkipsDockerWhenPresent(t *testing.T) {
	f := newFixture(t, config.Defaults("ckan"))
	f.dpkg = "ii  docker-ce  5:27.0.3-1  amd64  Docker: the open-source container engine\n"

	require.NoError(t, f.in.Run(context.Background(), runner.NewExecContext(f.rec, f.paths.Home)))

	assert.Equal(t, 1, f.rec.Count("dpkg -l"))
	assert.Zero(t, f.rec.Count("get.docker.com"))
	assert.Zero(t, f.rec.Count("get-docker.sh"))
	assert.Zero(t, f.rec.Count("openssh-server"))
	assert.Zero(t, f.rec.Count("datastore"))
	assert.Equal(t, 1, f.rec.Count(" run"))
}

func TestInstallSkipsExistingCheckouts(t *testing.T) {
	f := newFixture(t, config.Defaults("ckan"))
	require.NoError(t, os.MkdirAll(f.paths.ComposeDir(), 0o755))
	require.NoError(t, os.WriteFile(f.paths.Ahoy(), []byte("bin"), 0o755))

	require.NoError(t, f.in.Run(context.Background(), runner.NewExecContext(f.rec, f.paths.Home)))

	assert.Zero(t, f.rec.Count("git clone"))
	assert.Zero(t, f.rec.Count("ahoy-bin-linux-amd64"))
	assert.Zero(t, f.rec.Count("generate config"))
	assert.Equal(t, 1, f.rec.Count("git switch ckan-devstaller"))
}

func TestInstallAbortsAtFailingStep(t *testing.T) {
	f := newFixture(t, config.Defaults("ckan"))
	f.failOn = "git switch"

	err := f.in.Run(context.Background(), runner.NewExecContext(f.rec, f.paths.Home))
	require.Error(t, err)

	var abort *pipeline.AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, "5.", abort.Ordinal)
	assert.Equal(t, 1, runner.ExitCode(err))
	assert.Zero(t, f.rec.Count("ahoy up"))
	assert.Zero(t, f.rec.Count("venv"))

	saved, err := state.Load(f.in.StatePath)
	require.NoError(t, err)
	assert.Contains(t, saved.Artifacts, f.paths.ComposeDir())
}

func TestInstallDataStoreRequiresContainer(t *testing.T) {
	cfg := config.Defaults("ckan")
	cfg.Extensions = config.NewExtensionSet(config.DataStore)
	f := newFixture(t, cfg)
	f.rec.Handler = func(cmd runner.Cmd, opts runner.Options) (runner.Result, error) {
		return runner.Result{}, nil
	}

	err := f.in.installDataStore(context.Background(), runner.NewExecContext(f.rec, f.paths.Home))
	require.Error(t, err)
	assert.Contains(t, err.Error(), PostgresContainer)
}

func TestVenvPrependsBinDirectory(t *testing.T) {
	in := &Installer{Paths: DefaultPaths("ckan", "/home/ckan")}
	ec := in.venv(runner.ExecContext{}.With("PATH", "/usr/bin"))
	assert.Equal(t, "/usr/lib/ckan/default/bin:/usr/bin", ec.Env["PATH"])
	assert.Equal(t, "/usr/lib/ckan/default", ec.Env["VIRTUAL_ENV"])
}
