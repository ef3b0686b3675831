package installer

import "path/filepath"

// Paths locates everything the installer reads or writes on the host.
type Paths struct {
	User string // Login name of the operator
	Home string // Operator home directory

	CKANLib    string // /usr/lib/ckan
	EtcDir     string // /etc/ckan
	StorageDir string // /var/lib/ckan/default
	QSVBin     string // Installed qsvdp binary
}

// DefaultPaths returns the standard CKAN source-install layout for user.
func DefaultPaths(user, home string) Paths {
	return Paths{
		User:       user,
		Home:       home,
		CKANLib:    "/usr/lib/ckan",
		EtcDir:     "/etc/ckan",
		StorageDir: "/var/lib/ckan/default",
		QSVBin:     "/usr/local/bin/qsvdp",
	}
}

// Venv is the CKAN virtualenv.
func (p Paths) Venv() string { return filepath.Join(p.CKANLib, "default") }

// VenvBin returns the path of an executable inside the virtualenv.
func (p Paths) VenvBin(name string) string { return filepath.Join(p.Venv(), "bin", name) }

// SrcDir holds editable installs of CKAN and its extensions.
func (p Paths) SrcDir() string { return filepath.Join(p.Venv(), "src") }

// CKANSrc is the CKAN source checkout.
func (p Paths) CKANSrc() string { return filepath.Join(p.SrcDir(), "ckan") }

// ConfigDir holds ckan.ini and who.ini.
func (p Paths) ConfigDir() string { return filepath.Join(p.EtcDir, "default") }

// CKANIni is the CKAN configuration file.
func (p Paths) CKANIni() string { return filepath.Join(p.ConfigDir(), "ckan.ini") }

// ResourceFormats is CKAN's list of known resource formats.
func (p Paths) ResourceFormats() string {
	return filepath.Join(p.CKANSrc(), "ckan", "config", "resource_formats.json")
}

// InHome joins name onto the operator's home directory.
func (p Paths) InHome(name ...string) string {
	return filepath.Join(append([]string{p.Home}, name...)...)
}

// ComposeDir is the ckan-compose checkout.
func (p Paths) ComposeDir() string { return p.InHome("ckan-compose") }

// Ahoy is the downloaded ahoy binary.
func (p Paths) Ahoy() string { return p.InHome("ahoy") }
