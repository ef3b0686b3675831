package config

// DefaultCKANVersion is installed when nothing else is requested, with or
// without prompts.
const DefaultCKANVersion = "2.11.3"

// DefaultSysadminPassword is the password of the generated sysadmin account unless overridden.
const DefaultSysadminPassword = "password"

// CKANVersionChoices are offered by the interactive version prompt.
var CKANVersionChoices = []string{DefaultCKANVersion, "2.10.8"}

// Sysadmin is the CKAN administrator account created during installation.
type Sysadmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// DefaultSysadmin derives the sysadmin account from the operator's login name.
func DefaultSysadmin(username string) Sysadmin {
	return Sysadmin{
		Username: username,
		Password: DefaultSysadminPassword,
		Email:    username + "@localhost",
	}
}

// InstallationConfig is the resolved set of choices for one run.
// It is built once by the Resolver and passed by value afterwards; its set
// types are plain bit masks so copies never share state.
type InstallationConfig struct {
	EnableSSH   bool
	CKANVersion string
	Sysadmin    Sysadmin
	Extensions  ExtensionSet
	Features    FeatureSet
	// DRUFMode enables DataPusher+'s dataset-resource-upload-first workflow.
	DRUFMode bool
	// SkipRun leaves CKAN stopped at the end of the installation.
	SkipRun bool
}

// Defaults returns the configuration used when no preset, answers file, flag or prompt says otherwise.
func Defaults(username string) InstallationConfig {
	return InstallationConfig{
		CKANVersion: DefaultCKANVersion,
		Sysadmin:    DefaultSysadmin(username),
	}
}
