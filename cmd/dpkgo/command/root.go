package command

import (
	stderrors "errors"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/logger"
)

var (
	noColor bool

	flagRootDir      string
	flagInstDir      string
	flagAdminDir     string
	flagArchitecture string
	flagVendor       string
	flagDistribution []string
	flagForce        []string
	flagNoForce      []string
)

func getLongDescription() string {
	logo := `
	██████╗ ██████╗ ██╗  ██╗ ██████╗  ██████╗
	██╔══██╗██╔══██╗██║ ██╔╝██╔════╝ ██╔═══██╗
	██║  ██║██████╔╝█████╔╝ ██║  ███╗██║   ██║
	██║  ██║██╔═══╝ ██╔═██╗ ██║   ██║██║   ██║
	██████╔╝██║     ██║  ██╗╚██████╔╝╚██████╔╝
	╚═════╝ ╚═╝     ╚═╝  ╚═╝ ╚═════╝  ╚═════╝
	`

	var coloredLogo string
	if logger.IsColorDisabled() {
		coloredLogo = logo
	} else {
		coloredLogo = pterm.FgCyan.Sprint(logo)
	}

	return coloredLogo +
		"\ndpkgo is a transactional Debian-compatible package manager core: archive" +
		"\ncodec, control-field parser, dependency evaluator, installer/remover state" +
		"\nmachines, and a journal that rolls a failed transaction back to where it" +
		"\nstarted."
}

var rootCmd = &cobra.Command{
	Use:   "dpkgo",
	Short: "📦 dpkgo - transactional Debian package manager core",
	Long:  getLongDescription(),
	Example: `  # Install an archive given by its path (dependencies are not fetched)
  dpkgo install ./htop_3.2.2_amd64.deb

  # Remove a package, keeping its conffiles
  dpkgo remove htop

  # Purge a package removed earlier
  dpkgo purge htop

  # Remove orphaned auto-installed dependencies
  dpkgo autoremove

  # Replay a kept transaction journal after a crash
  dpkgo rollback /var/lib/dpkgo/tracker.journal

  # Compare two version strings the way the evaluator does
  dpkgo compare-versions 1.2.0-1 lt 1.10.0-1`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		shouldDisableColor := noColor || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"
		logger.SetColorDisabled(shouldDisableColor)
	},
}

// Execute adds all child commands to the root command and runs it. It is
// the single entry point main.main calls. compare-versions reserves exit
// code 255 for a malformed invocation, distinct from the ordinary exit
// code 1 a false relation returns, matching dpkg's own convention.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	logger.Error(err.Error())

	var dpkgoErr *errors.DpkgoError

	isArgumentError := stderrors.As(err, &dpkgoErr) &&
		(dpkgoErr.Type == errors.ErrTypeParameter || dpkgoErr.Type == errors.ErrTypeParse)

	if cmd.Name() == compareVersionsCmd.Name() && isArgumentError {
		os.Exit(255)
	}

	os.Exit(1)
}

//nolint:gochecknoinits // cobra root command wiring
func init() {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		logger.SetColorDisabled(true)
	}

	rootCmd.AddGroup(&cobra.Group{ID: "transaction", Title: "Transaction Commands"})
	rootCmd.AddGroup(&cobra.Group{ID: "query", Title: "Query Commands"})
	rootCmd.AddGroup(&cobra.Group{ID: "build", Title: "Build Commands"})

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagRootDir, "root", "/", "filesystem root new files are written relative to")
	rootCmd.PersistentFlags().StringVar(&flagInstDir, "instdir", "/", "directory package payloads are unpacked into")
	rootCmd.PersistentFlags().StringVar(&flagAdminDir, "admindir", "/var/lib/dpkgo", "administrative database root")
	rootCmd.PersistentFlags().StringVar(&flagArchitecture, "architecture", "amd64", "target architecture")
	rootCmd.PersistentFlags().StringVar(&flagVendor, "vendor", "", "accepted vendor string, empty accepts any")
	rootCmd.PersistentFlags().StringSliceVar(&flagDistribution, "distribution", nil,
		"accepted distribution names, empty accepts any")
	rootCmd.PersistentFlags().StringSliceVar(&flagForce, "force", nil,
		"force override to enable, e.g. force-downgrade (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&flagNoForce, "no-force", nil,
		"force override to explicitly disable, overriding --force (repeatable)")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}
