package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/logger"
	"github.com/dpkgo/dpkgo/pkg/repository"
)

var flagIndexOutput string
var flagIndexRecursive bool

var createIndexCmd = &cobra.Command{
	Use:     "create-index <repo-dir>...",
	Short:   "🗂️  Index the .deb archives under one or more repository directories",
	GroupID: "build",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCreateIndex,
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Short:   "🔄 Refresh the fetch status of every configured source",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE:    runUpdate,
}

var upgradeListCmd = &cobra.Command{
	Use:     "upgrade-list <repo-dir>...",
	Short:   "⬆️  Compare installed packages against a repository's index",
	GroupID: "query",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runUpgradeList,
}

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Short:   "🌐 List, add, or remove entries in sources.list",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE:    runSourcesList,
}

var addSourcesCmd = &cobra.Command{
	Use:   "add-sources <type> <uri> <distribution> <component>...",
	Short: "➕ Append a validated source to sources.list",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runAddSources,
}

var removeSourcesCmd = &cobra.Command{
	Use:   "remove-sources <line-number>...",
	Short: "➖ Delete sources by their one-based sources.list line number",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemoveSources,
}

func runCreateIndex(_ *cobra.Command, args []string) error {
	entries, err := repository.CreateIndex(args, flagIndexRecursive)
	if err != nil {
		return err
	}

	if err := repository.WriteIndex(entries, flagIndexOutput); err != nil {
		return err
	}

	logger.Info("index written", "path", flagIndexOutput, "packages", len(entries))

	return nil
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg := buildConfig()

	entries, err := repository.Update(cmd.Context(), cfg.AdminDir, fetchOverHTTP)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%-8s %s\n", entry.Status, entry.Source)
	}

	return nil
}

// fetchOverHTTP is a placeholder collaborator: spec.md §4.I treats
// network fetching as external to the core, so this only validates
// that a source looks reachable in shape, not that its index is valid.
func fetchOverHTTP(_ context.Context, src repository.Source) error {
	if src.URI == "" {
		return errors.New(errors.ErrTypeParameter, "source has no uri")
	}

	return nil
}

func runUpgradeList(_ *cobra.Command, args []string) error {
	cfg := buildConfig()
	mgr := newManager(cfg)

	entries, err := repository.CreateIndex(args, flagIndexRecursive)
	if err != nil {
		return err
	}

	all, urgent, err := repository.UpgradeList(mgr, entries)
	if err != nil {
		return err
	}

	for _, cand := range all {
		line := fmt.Sprintf("%-16s %-8s", cand.Name, cand.Class)
		if cand.RejectionCause != "" {
			line += " (" + cand.RejectionCause + ")"
		}

		fmt.Println(line)
	}

	if len(urgent) > 0 {
		logger.Warn("urgent upgrades available", "count", len(urgent))
	}

	return nil
}

func runSourcesList(_ *cobra.Command, _ []string) error {
	cfg := buildConfig()

	sources, err := repository.ReadSources(cfg.AdminDir)
	if err != nil {
		return err
	}

	for i, src := range sources {
		fmt.Printf("%d: %s\n", i+1, src.String())
	}

	return nil
}

func runAddSources(_ *cobra.Command, args []string) error {
	cfg := buildConfig()

	src := repository.Source{
		Type:         args[0],
		URI:          args[1],
		Distribution: args[2],
		Components:   args[3:],
	}

	return repository.AddSource(cfg.AdminDir, src)
}

func runRemoveSources(_ *cobra.Command, args []string) error {
	cfg := buildConfig()

	indices := make([]int, 0, len(args))

	for _, raw := range args {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New(errors.ErrTypeParameter, "invalid line number "+raw)
		}

		indices = append(indices, idx)
	}

	return repository.RemoveSources(cfg.AdminDir, indices)
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	createIndexCmd.Flags().StringVar(&flagIndexOutput, "output", "index.tar.gz", "index archive to write")
	createIndexCmd.Flags().BoolVar(&flagIndexRecursive, "recursive", false, "descend into repository subdirectories")
	upgradeListCmd.Flags().BoolVar(&flagIndexRecursive, "recursive", false, "descend into repository subdirectories")

	sourcesCmd.AddCommand(addSourcesCmd)
	sourcesCmd.AddCommand(removeSourcesCmd)

	rootCmd.AddCommand(createIndexCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(upgradeListCmd)
	rootCmd.AddCommand(sourcesCmd)
}
