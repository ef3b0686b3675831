package installer

import (
	"context"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/precheck"
	"ckan-devstaller/internal/runner"
)

const (
	// CKANRepo is the upstream CKAN repository.
	CKANRepo = "https://github.com/ckan/ckan.git"
	// DebugToolbar is pinned for compatibility with CKAN's Flask version.
	DebugToolbar = "flask-debugtoolbar==0.14.1"
)

// CKANRequirement is the pip requirement that installs CKAN at version.
func CKANRequirement(version string) string {
	return "git+" + CKANRepo + "@ckan-" + version + "#egg=ckan[requirements]"
}

func (in *Installer) installCKAN(ctx context.Context, ec runner.ExecContext) error {
	p := in.Paths
	user := p.User

	// Build dependencies for CKAN and its Python packages
	if err := aptInstall(ctx, ec, "python3-dev", "libpq-dev", "python3-pip", "python3-venv", "git-core", "redis-server"); err != nil {
		return err
	}

	// Create the virtualenv under /usr/lib/ckan and install CKAN into it
	if err := ec.Run(ctx, "sudo", "mkdir", "-p", p.Venv()); err != nil {
		return err
	}
	in.record(p.CKANLib)
	if err := ec.Run(ctx, "sudo", "chown", user, p.Venv()); err != nil {
		return err
	}
	if err := ec.Run(ctx, "python3", "-m", "venv", p.Venv()); err != nil {
		return err
	}
	if err := in.pip(ctx, ec, "install", "--upgrade", "pip"); err != nil {
		return err
	}
	if err := in.pip(ctx, ec, "install", CKANRequirement(in.Config.CKANVersion)); err != nil {
		return err
	}

	// Config directory owned by the operator so ckan can write into it
	if err := ec.Run(ctx, "sudo", "mkdir", "-p", p.ConfigDir()); err != nil {
		return err
	}
	in.record(p.EtcDir)
	if err := ec.Run(ctx, "sudo", "chown", "-R", user, p.EtcDir+"/"); err != nil {
		return err
	}

	// Source checkout, reused when already present
	if exists, err := precheck.PathExists(p.CKANSrc()); err != nil {
		return err
	} else if !exists {
		if err := ec.Run(ctx, "git", "clone", CKANRepo, p.CKANSrc()); err != nil {
			return err
		}
	}

	// Generate ckan.ini once; reruns keep the patched file
	src := in.venv(ec.In(p.CKANSrc()))
	if exists, err := precheck.PathExists(p.CKANIni()); err != nil {
		return err
	} else if exists {
		logger.Info("[INFO] %s already exists, keeping it\n", p.CKANIni())
	} else if err := src.Run(ctx, p.VenvBin("ckan"), "generate", "config", p.CKANIni()); err != nil {
		return err
	}
	if err := ec.Run(ctx, "ln", "-sf", p.CKANSrc()+"/who.ini", p.ConfigDir()+"/who.ini"); err != nil {
		return err
	}
	if err := in.pip(ctx, ec.In(p.CKANSrc()), "install", DebugToolbar); err != nil {
		return err
	}

	// File storage for uploads
	if err := ec.Run(ctx, "sudo", "mkdir", "-p", p.StorageDir); err != nil {
		return err
	}
	if err := ec.Run(ctx, "sudo", "chown", user+":"+user, p.StorageDir); err != nil {
		return err
	}

	// Initialize the database and create the sysadmin account
	admin := in.Config.Sysadmin
	if err := in.ckan(ctx, ec, "db", "init"); err != nil {
		return err
	}
	if err := in.ckan(ctx, ec, "user", "add", admin.Username, "password="+admin.Password, "email="+admin.Email); err != nil {
		return err
	}
	return in.ckan(ctx, ec, "sysadmin", "add", admin.Username)
}

func (in *Installer) runCKAN(ctx context.Context, ec runner.ExecContext) error {
	logger.Println(logger.Success("Running CKAN instance..."))
	return in.ckan(ctx, ec, "run")
}
