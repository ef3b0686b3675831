package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/runner"
	"ckan-devstaller/internal/state"
)

// homeLeftovers are the files and directories an installation leaves in the operator's home.
var homeLeftovers = []string{"README", "ckan-compose", "ahoy", "dpp_default_config.ini", "get-docker.sh", "permissions.sql"}

// Uninstaller removes CKAN and the files the installer created.
type Uninstaller struct {
	Paths     Paths
	State     *state.State
	StatePath string
	// Confirm asks the operator whether to proceed; details lists the removals.
	Confirm func(details string) (bool, error)
}

// Plan lists the removal commands in the order they run.
func (u *Uninstaller) Plan() ([]runner.Cmd, error) {
	p := u.Paths
	cmds := []runner.Cmd{
		runner.Command("sudo", "rm", "-rf", p.CKANLib),
		runner.Command("sudo", "rm", "-rf", p.EtcDir),
	}
	covered := map[string]bool{p.CKANLib: true, p.EtcDir: true}

	qsv, err := globHome(p.Home, "qsv*")
	if err != nil {
		return nil, err
	}
	if len(qsv) > 0 {
		cmds = append(cmds, runner.Command("rm", append([]string{"-rf"}, qsv...)...))
	}
	for _, path := range qsv {
		covered[path] = true
	}

	home := make([]string, len(homeLeftovers))
	for i, name := range homeLeftovers {
		home[i] = p.InHome(name)
		covered[home[i]] = true
	}
	cmds = append(cmds, runner.Command("rm", append([]string{"-rf"}, home...)...))

	if u.State != nil {
		for _, a := range u.State.Artifacts {
			if covered[a] || coveredBy(a, p.CKANLib, p.EtcDir) {
				continue
			}
			covered[a] = true
			cmds = append(cmds, runner.Command("sudo", "rm", "-rf", a))
		}
	}
	return cmds, nil
}

func coveredBy(path string, dirs ...string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(path, d+"/") {
			return true
		}
	}
	return false
}

// Run asks for confirmation and removes everything in the plan. It reports
// whether the operator agreed; declining removes nothing.
func (u *Uninstaller) Run(ctx context.Context, ec runner.ExecContext) (bool, error) {
	plan, err := u.Plan()
	if err != nil {
		return false, err
	}

	if u.Confirm != nil {
		lines := make([]string, len(plan))
		for i, c := range plan {
			lines[i] = c.String()
		}
		ok, err := u.Confirm("The following commands are run when attempting the uninstall:\n" + strings.Join(lines, "\n"))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	for _, c := range plan {
		logger.Info("[INFO] Running %s\n", c)
		if _, err := ec.RunWith(ctx, c, runner.Options{}); err != nil {
			return true, fmt.Errorf("uninstall failed: %w", err)
		}
	}

	if u.StatePath != "" {
		if err := os.Remove(u.StatePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return true, fmt.Errorf("failed to remove state file: %w", err)
		}
	}
	return true, nil
}
