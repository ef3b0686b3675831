package installer

import (
	"context"
	"os"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/pipeline"
	"ckan-devstaller/internal/precheck"
	"ckan-devstaller/internal/runner"
)

// DockerInstallScript is Docker's convenience installer.
const DockerInstallScript = "https://get.docker.com"

func defaultPath() string {
	if p := os.Getenv("PATH"); p != "" {
		return p
	}
	return "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
}

// aptInstall installs packages non-interactively.
func aptInstall(ctx context.Context, ec runner.ExecContext, packages ...string) error {
	args := append([]string{"apt", "install"}, packages...)
	return ec.Run(ctx, "sudo", append(args, "-y")...)
}

func (in *Installer) updatePackages(ctx context.Context, ec runner.ExecContext) error {
	logger.Println(logger.Important("You may need to provide your sudo password."))
	if err := ec.Run(ctx, "sudo", "apt", "update", "-y"); err != nil {
		return err
	}
	// Upgrades on fresh images regularly trip over unrelated packages (xrdp).
	_, err := ec.RunWith(ctx, runner.Command("sudo", "apt", "upgrade", "-y"), runner.Options{IgnoreExitStatus: true})
	return err
}

func (in *Installer) installCurl(ctx context.Context, ec runner.ExecContext) error {
	return aptInstall(ctx, ec, "curl")
}

func (in *Installer) installOpenSSH(ctx context.Context, ec runner.ExecContext) error {
	return aptInstall(ctx, ec, "openssh-server")
}

func (in *Installer) installDocker(ctx context.Context, ec runner.ExecContext) error {
	installed, err := precheck.PackageInstalled(ctx, ec, "docker")
	if err != nil {
		return err
	}
	if installed {
		logger.Info("[INFO] Docker is already installed. Skipping.\n")
		return pipeline.ErrSkipped
	}

	script := in.Paths.InHome("get-docker.sh")
	if err := ec.Run(ctx, "curl", "-fsSL", DockerInstallScript, "-o", script); err != nil {
		return err
	}
	in.record(script)
	return ec.Run(ctx, "sudo", "sh", script)
}
