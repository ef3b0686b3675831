package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/pipeline"
	"ckan-devstaller/internal/precheck"
	"ckan-devstaller/internal/runner"
)

const (
	// ComposeRepo is the ckan-compose fork that carries the ckan-devstaller branch.
	ComposeRepo   = "https://github.com/tino097/ckan-compose.git"
	ComposeBranch = "ckan-devstaller"
	// ComposeProject names the compose project, and with it the containers.
	ComposeProject = "ckan-devstaller-project"
)

// ComposeEnv is written to ckan-compose/.env.
var ComposeEnv = map[string]string{
	"PROJECT_NAME":                ComposeProject,
	"DATASTORE_READONLY_PASSWORD": "pass",
	"POSTGRES_PASSWORD":           "pass",
}

func (in *Installer) installAhoy(ctx context.Context, ec runner.ExecContext) error {
	dest := in.Paths.Ahoy()
	if ok, err := precheck.PathExists(dest); err != nil {
		return err
	} else if ok {
		logger.Info("[INFO] %s already exists. Skipping.\n", dest)
		return pipeline.ErrSkipped
	}

	if err := downloadAsset(ctx, ec, in.Releases, AhoyRelease, dest); err != nil {
		return err
	}
	in.record(dest)
	if err := os.Chmod(dest, 0o755); err != nil {
		return fmt.Errorf("failed to make %s executable: %w", dest, err)
	}
	return nil
}

func (in *Installer) startCompose(ctx context.Context, ec runner.ExecContext) error {
	dir := in.Paths.ComposeDir()
	exists, err := precheck.PathExists(dir)
	if err != nil {
		return err
	}
	if !exists {
		if err := ec.In(in.Paths.Home).Run(ctx, "git", "clone", ComposeRepo, dir); err != nil {
			return err
		}
	} else {
		logger.Info("[INFO] %s already exists, reusing it\n", dir)
	}
	in.record(dir)

	compose := ec.In(dir)
	if err := compose.Run(ctx, "git", "switch", ComposeBranch); err != nil {
		return err
	}
	if _, err := WriteComposeEnv(dir+"/.env", ComposeEnv); err != nil {
		return err
	}
	return compose.Run(ctx, "sudo", "../ahoy", "up")
}

// WriteComposeEnv merges values into the dotenv file at path, keeping any
// other keys already present. The file is left untouched when nothing changes.
func WriteComposeEnv(path string, values map[string]string) (bool, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env = make(map[string]string, len(values))
	} else if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for k, v := range values {
		env[k] = v
	}

	content, err := godotenv.Marshal(env)
	if err != nil {
		return false, err
	}
	return writeFileIfChanged(path, ensureTrailingNewline([]byte(content)), 0o644)
}

func (in *Installer) waitForDatabase(ctx context.Context, _ runner.ExecContext) error {
	wait := in.WaitForDB
	if wait == nil {
		wait = func(ctx context.Context, interval, timeout time.Duration) error {
			return WaitForPostgres(ctx, DatabaseURL, interval, timeout)
		}
	}
	w := in.waits()
	return wait(ctx, w.Interval, w.DBTimeout)
}
