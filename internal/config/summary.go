package config

import (
	"fmt"
	"strings"
)

// Summary describes what an installation with cfg will do.
func Summary(cfg InstallationConfig) string {
	var b strings.Builder
	b.WriteString("The current configuration for ckan-devstaller does the following:")
	if cfg.EnableSSH {
		b.WriteString("\n- Install openssh-server to enable SSH access")
	}
	b.WriteString("\n- Install ckan-compose (https://github.com/tino097/ckan-compose/tree/ckan-devstaller) which sets up the CKAN backend (PostgreSQL, SOLR, Redis)")
	fmt.Fprintf(&b, "\n- Install CKAN v%s", cfg.CKANVersion)
	fmt.Fprintf(&b, "\n- Create the sysadmin account %q (%s)", cfg.Sysadmin.Username, cfg.Sysadmin.Email)
	for _, ext := range cfg.Extensions.IDs() {
		fmt.Fprintf(&b, "\n- Install the %s extension", ext)
	}
	if cfg.Extensions.Has(DataPusherPlus) {
		if cfg.DRUFMode {
			b.WriteString("\n- Enable DRUF mode for DataPusher+")
		} else {
			b.WriteString("\n- Disable DRUF mode for DataPusher+")
		}
	}
	if cfg.SkipRun {
		b.WriteString("\n- Leave CKAN stopped after installation")
	}
	return b.String()
}
