package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ckan-devstaller/internal/config"
	"ckan-devstaller/internal/installer"
	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/prompt"
	"ckan-devstaller/internal/runner"
	"ckan-devstaller/internal/state"
)

// SupportHint is printed whenever the installer fails.
const SupportHint = "If you need help, please report an issue at https://github.com/dathere/ckan-devstaller/issues or create a support ticket at https://support.dathere.com."

// debug indicates whether debug logging should be enabled.
// It can be toggled via the `--debug` command-line flag.
var debug bool

var (
	flags           config.Flags
	defaultMode     bool
	dbWaitTimeout   time.Duration
	fileWaitTimeout time.Duration
)

// rootCmd installs CKAN when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "ckan-devstaller",
	Short: "Install a CKAN development instance within minutes",
	Long: `ckan-devstaller installs CKAN from source together with ckan-compose
(PostgreSQL, Solr, Redis) and optional extensions on a fresh Ubuntu host.

Learn more at https://ckan-devstaller.dathere.com`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Unquoted lists such as `--extensions DataStore DataPusher+` leave
	// positional values; installFlags assigns them to their list flag.
	Args: cobra.ArbitraryArgs,

	// Initialize the logger before any command runs.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	RunE: runInstall,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

func reportFailure(err error) {
	logger.Error("%v\n", err)
	logger.Println(SupportHint)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	f := rootCmd.Flags()
	f.BoolVarP(&flags.SkipInteractive, "skip-interactive", "s", false, "Skip interactive steps")
	f.BoolVar(&defaultMode, "default", false, "Install the default configuration without prompting (same as --skip-interactive)")
	f.BoolVar(&flags.SkipRun, "skip-run", false, "Skip running CKAN at the end of installation")
	f.StringVarP(&flags.CKANVersion, "ckan-version", "c", "", "CKAN version to install, e.g. 2.11.3")
	f.StringArrayVarP(&flags.Extensions, "extensions", "e", nil, "CKAN extensions to install, separated by spaces or commas (DataStore, ckanext-scheming, DataPusher+)")
	f.StringArrayVarP(&flags.Features, "features", "f", nil, "Custom features, separated by spaces or commas (enable-ssh)")
	f.StringVar(&flags.Preset, "preset", "", "Start from a preset configuration (ckan-only, dathere-default)")
	f.StringVar(&flags.AnswersFile, "answers", "", "YAML file with pre-filled answers")
	f.DurationVar(&dbWaitTimeout, "db-wait-timeout", installer.DefaultWaits().DBTimeout, "How long to wait for the ckan-compose database")
	f.DurationVar(&fileWaitTimeout, "file-wait-timeout", installer.DefaultWaits().FileTimeout, "How long to wait for generated files")
}

// installFlags returns the resolver flags collected from the command line.
// raw is the unparsed argument list and args the positional values cobra left.
func installFlags(fs *pflag.FlagSet, raw, args []string) (config.Flags, error) {
	out := flags
	out.SkipInteractive = flags.SkipInteractive || defaultMode
	if len(args) == 0 {
		return out, nil
	}

	exts, feats, err := trailingListValues(fs, raw)
	if err != nil {
		return config.Flags{}, err
	}
	out.Extensions = append(append([]string(nil), flags.Extensions...), exts...)
	out.Features = append(append([]string(nil), flags.Features...), feats...)
	return out, nil
}

// trailingListValues walks raw in order and collects the bare values that
// follow the value of --extensions or --features, e.g.
// `--extensions ckanext-scheming DataStore DataPusher+`. A bare value after
// any other flag is an error.
func trailingListValues(fs *pflag.FlagSet, raw []string) (exts, feats []string, err error) {
	var list *[]string
	skipNext := false
	for i, arg := range raw {
		if skipNext {
			skipNext = false
			continue
		}
		if arg == "--" {
			if i+1 < len(raw) {
				return nil, nil, unexpectedArg(raw[i+1])
			}
			break
		}
		if len(arg) > 1 && arg[0] == '-' {
			fl, inline := lookupFlag(fs, arg)
			list = nil
			if fl == nil {
				continue
			}
			switch fl.Name {
			case "extensions":
				list = &exts
			case "features":
				list = &feats
			}
			skipNext = takesValue(fl) && !inline
			continue
		}
		if list == nil {
			return nil, nil, unexpectedArg(arg)
		}
		*list = append(*list, arg)
	}
	return exts, feats, nil
}

// lookupFlag resolves a long flag or a group of shorthands. For a group the
// first shorthand taking a value consumes the rest of the token.
func lookupFlag(fs *pflag.FlagSet, arg string) (*pflag.Flag, bool) {
	if strings.HasPrefix(arg, "--") {
		name, _, inline := strings.Cut(arg[2:], "=")
		return fs.Lookup(name), inline
	}
	var fl *pflag.Flag
	for j := 1; j < len(arg); j++ {
		fl = fs.ShorthandLookup(arg[j : j+1])
		if fl != nil && takesValue(fl) {
			return fl, j+1 < len(arg)
		}
	}
	return fl, false
}

func takesValue(fl *pflag.Flag) bool {
	return fl.NoOptDefVal == ""
}

func unexpectedArg(arg string) error {
	return fmt.Errorf("unexpected argument %q; pass extension and feature lists right after their flag or quote them, e.g. --extensions \"DataStore DataPusher+\"", arg)
}

// operator returns the login name and home directory of the invoking user.
func operator() (string, string, error) {
	u, err := user.Current()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine current user: %w", err)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return u.Username, home, nil
}

func printIntro() {
	logger.Println("Welcome to the ckan-devstaller!")
	logger.Println(fmt.Sprintf("ckan-devstaller is provided by datHere - %s\n", logger.Highlight("https://datHere.com")))
	logger.Println(fmt.Sprintf("This installer should assist in setting up %s from a source installation along with ckan-compose. %s",
		logger.Highlight("CKAN"), SupportHint))
	logger.Println("\nYou may also learn more about ckan-devstaller at https://ckan-devstaller.dathere.com.")
	logger.Println("\n" + logger.Important("This installer is only intended for a brand new installation of Ubuntu 22.04.") + "\n")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	username, home, err := operator()
	if err != nil {
		return err
	}

	printIntro()

	fl, err := installFlags(cmd.Flags(), os.Args[1:], args)
	if err != nil {
		return err
	}
	resolver := config.Resolver{UI: prompt.NewHuhUI(), Username: username}
	cfg, err := resolver.Resolve(fl)
	if errors.Is(err, config.ErrCancelled) {
		logger.Println("Cancelling installation.")
		return nil
	}
	if err != nil {
		return err
	}
	if fl.SkipInteractive {
		logger.Println(config.Summary(cfg))
	}

	begin, err := resolver.ConfirmBegin(fl, cfg)
	if errors.Is(err, config.ErrCancelled) || (err == nil && !begin) {
		logger.Println("Cancelling installation.")
		return nil
	}
	if err != nil {
		return err
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		return err
	}
	st, err := state.Load(statePath)
	if err != nil {
		logger.Warn("[WARN] %v; starting with an empty state\n", err)
		st = state.New()
	}

	in := &installer.Installer{
		Config: cfg,
		Paths:  installer.DefaultPaths(username, home),
		Waits: installer.WaitOptions{
			Interval:    installer.DefaultWaits().Interval,
			FileTimeout: fileWaitTimeout,
			DBTimeout:   dbWaitTimeout,
		},
		Releases:  installer.NewReleaseClient(),
		State:     st,
		StatePath: statePath,
	}

	logger.Println("\n" + logger.Important("Starting installation..."))
	ec := runner.NewExecContext(runner.NewExecRunner(), home)
	if err := in.Run(ctx, ec); err != nil {
		return err
	}
	logger.Println("\n" + logger.Success("ckan-devstaller finished successfully."))
	return nil
}
