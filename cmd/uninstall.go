package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ckan-devstaller/internal/config"
	"ckan-devstaller/internal/installer"
	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/prompt"
	"ckan-devstaller/internal/runner"
	"ckan-devstaller/internal/state"
)

// assumeYes skips the uninstall confirmation.
var assumeYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Attempt to uninstall CKAN and related ckan-devstaller installation files",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(uninstallCmd)
}

// confirmUninstall asks through ui unless assumeYes is set.
func confirmUninstall(ui config.Prompter) func(string) (bool, error) {
	if assumeYes {
		return nil
	}
	return func(details string) (bool, error) {
		ok := false
		err := ui.Confirm("Are you sure you want to uninstall CKAN and related files from ckan-devstaller?", details, &ok)
		return ok, err
	}
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	username, home, err := operator()
	if err != nil {
		return err
	}
	statePath, err := state.DefaultPath()
	if err != nil {
		return err
	}
	st, err := state.Load(statePath)
	if err != nil {
		logger.Warn("[WARN] %v; only the standard locations will be removed\n", err)
		st = nil
	}

	u := &installer.Uninstaller{
		Paths:     installer.DefaultPaths(username, home),
		State:     st,
		StatePath: statePath,
		Confirm:   confirmUninstall(prompt.NewHuhUI()),
	}
	proceeded, err := u.Run(ctx, runner.NewExecContext(runner.NewExecRunner(), home))
	if errors.Is(err, config.ErrCancelled) || (err == nil && !proceeded) {
		logger.Println("Cancelling command.")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Println(logger.Success("Uninstalled CKAN and related ckan-devstaller files."))
	return nil
}
