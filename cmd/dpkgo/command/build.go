package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/build"
	"github.com/dpkgo/dpkgo/pkg/errors"
)

var (
	flagBuildOutput string
)

var buildCmd = &cobra.Command{
	Use:     "build <project-dir>",
	Short:   "🔨 Assemble a project directory's control and data trees into a .deb",
	GroupID: "build",
	Args:    cobra.ExactArgs(1),
	RunE:    runBuild,
}

func runBuild(_ *cobra.Command, args []string) error {
	projectDir := args[0]

	controlPath := filepath.Join(projectDir, "control")

	raw, err := os.ReadFile(controlPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeIO, "reading "+controlPath)
	}

	dataDir := filepath.Join(projectDir, "data")
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return errors.New(errors.ErrTypeInvalid, dataDir+" must be a directory holding the package payload")
	}

	cfg := buildConfig()
	buildNumberFile := filepath.Join(cfg.AdminDir, "core", "build-number")

	result, err := build.Build(build.Project{ControlStanza: string(raw), DataDir: dataDir}, flagBuildOutput, buildNumberFile)
	if err != nil {
		return err
	}

	fmt.Printf("built %s (build #%d)\n", result.OutputPath, result.BuildNumber)

	return nil
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	buildCmd.Flags().StringVar(&flagBuildOutput, "output", ".", "directory the built .deb is written into")
	rootCmd.AddCommand(buildCmd)
}
