package command

import (
	"github.com/spf13/cobra"

	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/version"
)

// dpkgStyleOps maps the word operators dpkg's --compare-versions
// accepts on the command line to the Op codes version.Satisfies
// understands; "ne" has no direct Op and is handled separately.
var dpkgStyleOps = map[string]version.Op{
	"lt": version.OpLtLt, "le": version.OpLe, "eq": version.OpEq, "ge": version.OpGe, "gt": version.OpGtGt,
	"lt-nl": version.OpLtNL, "le-nl": version.OpLeNL, "eq-nl": version.OpEqNL,
	"ge-nl": version.OpGeNL, "gt-nl": version.OpGtNL,
	"<<": version.OpLtLt, "<=": version.OpLe, "=": version.OpEq, ">=": version.OpGe, ">>": version.OpGtGt,
}

var compareVersionsCmd = &cobra.Command{
	Use:     "compare-versions <v1> <op> <v2>",
	Short:   "⚖️  Compare two version strings the way the dependency evaluator does",
	GroupID: "query",
	Args:    cobra.ExactArgs(3),
	RunE:    runCompareVersions,
}

func runCompareVersions(_ *cobra.Command, args []string) error {
	rawA, opWord, rawB := args[0], args[1], args[2]

	if opWord == "ne" {
		a, err := version.Parse(rawA)
		if err != nil {
			return err
		}

		b, err := version.Parse(rawB)
		if err != nil {
			return err
		}

		if version.Compare(a, b) != 0 {
			return nil
		}

		return errors.New(errors.ErrTypeInvalid, rawA+" equals "+rawB)
	}

	op, ok := dpkgStyleOps[opWord]
	if !ok {
		return errors.New(errors.ErrTypeParameter, "unknown comparison operator "+opWord)
	}

	satisfied, err := version.SatisfiesString(rawA, op, rawB)
	if err != nil {
		return err
	}

	if !satisfied {
		return errors.New(errors.ErrTypeInvalid, rawA+" "+opWord+" "+rawB+" does not hold")
	}

	return nil
}

//nolint:gochecknoinits // cobra command wiring
func init() {
	rootCmd.AddCommand(compareVersionsCmd)
}
