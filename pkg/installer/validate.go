package installer

import (
	"fmt"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/depends"
	"github.com/dpkgo/dpkgo/pkg/errors"
	"github.com/dpkgo/dpkgo/pkg/version"
)

// Target describes the state an Installer validates candidates
// against: the admin database's recorded architecture/vendor/
// distribution policy and what is currently installed.
type Target struct {
	Architecture  string
	Vendor        string
	Distributions []string
	Lookup        depends.Lookup
}

// policyError wraps a validation failure with the force flag that
// suppresses it, so Validate can check cfg.IsForced before failing.
type policyError struct {
	message string
	force   string
}

func (e policyError) Error() string { return e.message }

// Validate runs the checks spec.md §4.F numbers 1-10 against cand,
// rejecting it (with cause) on the first unsuppressed failure. Checks
// whose matching force-* flag is set in cfg are downgraded to a no-op.
func Validate(cfg admin.Config, mgr *admin.Manager, target Target, cand *Candidate) error {
	if err := checkSelfUpgrade(mgr, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkArchitecture(target, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkVersionPolicy(cfg, target, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkVendor(target, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkDistribution(target, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkDependencies(target, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	if err := checkHold(mgr, cand); err != nil {
		return failCheck(cfg, cand, err)
	}

	cand.State = StateValidated

	return nil
}

// failCheck applies the force-override policy: if err names a force
// flag that cfg has set, the check passes silently; otherwise cand is
// rejected and the error returned.
func failCheck(cfg admin.Config, cand *Candidate, err error) error {
	if pe, ok := err.(policyError); ok && pe.force != "" && cfg.IsForced(pe.force) {
		return nil
	}

	cand.Reject(err.Error())

	return errors.New(errors.ErrTypeCompatibility, err.Error())
}

// checkSelfUpgrade implements spec.md §4.F check 1: a target matching
// the registered packager identity must be re-exec'd before
// proceeding, handled by the caller via Manager.ReExecSelfUpgrade.
func checkSelfUpgrade(mgr *admin.Manager, cand *Candidate) error {
	if mgr.IsSelf(cand.Name) {
		return policyError{message: "candidate is the running packager itself, re-exec required"}
	}

	return nil
}

// checkArchitecture implements spec.md §4.F check 2.
func checkArchitecture(target Target, cand *Candidate) error {
	if cand.Control == nil {
		return nil
	}

	field, ok := cand.Control.Get("Architecture")
	if !ok {
		return nil
	}

	if field.Value == "all" || field.Value == target.Architecture {
		return nil
	}

	return policyError{
		message: fmt.Sprintf("architecture %q incompatible with target %q", field.Value, target.Architecture),
	}
}

// checkVersionPolicy implements spec.md §4.F check 3.
func checkVersionPolicy(cfg admin.Config, target Target, cand *Candidate) error {
	known, installedVer, _, _ := target.Lookup(cand.Name)
	if !known || installedVer.IsEmpty() {
		return nil
	}

	candVer, err := version.Parse(cand.Version())
	if err != nil {
		return policyError{message: "invalid candidate version: " + err.Error()}
	}

	cmp := version.Compare(candVer, installedVer)

	switch {
	case cmp < 0:
		return policyError{
			message: fmt.Sprintf("%s would downgrade %s to %s", cand.Name, installedVer, candVer),
			force:   "force-downgrade",
		}
	case cmp == 0:
		return policyError{
			message: fmt.Sprintf("%s is already at version %s", cand.Name, candVer),
			force:   "force-same-version",
		}
	}

	if field, ok := cand.Control.Get("Minimum-Upgradable-Version"); ok {
		minVer, err := version.Parse(field.Value)
		if err == nil {
			if ok, _ := version.Satisfies(installedVer, version.OpGe, minVer); !ok {
				return policyError{
					message: fmt.Sprintf("installed version %s is below Minimum-Upgradable-Version %s", installedVer, minVer),
					force:   "force-upgrade-any-version",
				}
			}
		}
	}

	cand.PreviousVersion = installedVer.String()

	return nil
}

// checkVendor implements spec.md §4.F check 4.
func checkVendor(target Target, cand *Candidate) error {
	if target.Vendor == "" || cand.Control == nil {
		return nil
	}

	field, ok := cand.Control.Get("Vendor")
	if !ok || field.Value == target.Vendor {
		return nil
	}

	return policyError{
		message: fmt.Sprintf("vendor %q does not match target vendor %q", field.Value, target.Vendor),
		force:   "force-vendor",
	}
}

// checkDistribution implements spec.md §4.F check 5.
func checkDistribution(target Target, cand *Candidate) error {
	if len(target.Distributions) == 0 || cand.Control == nil {
		return nil
	}

	field, ok := cand.Control.Get("Distribution")
	if !ok {
		return nil
	}

	for _, accepted := range target.Distributions {
		if accepted == field.Value {
			return nil
		}
	}

	return policyError{
		message: fmt.Sprintf("distribution %q not accepted by target", field.Value),
		force:   "force-distribution",
	}
}

// checkDependencies implements spec.md §4.F check 6: Pre-Depends and
// Depends must be satisfiable; Breaks/Conflicts against an installed
// package must not be active (unless forced, in which case the
// check passes; the broken package is left as it is).
func checkDependencies(target Target, cand *Candidate) error {
	if cand.Control == nil {
		return nil
	}

	for _, fieldName := range []string{"Pre-Depends", "Depends"} {
		field, ok := cand.Control.Get(fieldName)
		if !ok || field.Value == "" {
			continue
		}

		expr, err := depends.Parse(field.Value)
		if err != nil {
			return policyError{message: fieldName + ": " + err.Error()}
		}

		result := depends.Evaluate(expr, target.Lookup, nil)
		if !result.Satisfied {
			return policyError{
				message: fmt.Sprintf("%s unsatisfied for %s", fieldName, cand.Name),
				force:   "force-depends",
			}
		}
	}

	for _, fieldName := range []string{"Breaks", "Conflicts"} {
		field, ok := cand.Control.Get(fieldName)
		if !ok || field.Value == "" {
			continue
		}

		expr, err := depends.Parse(field.Value)
		if err != nil {
			return policyError{message: fieldName + ": " + err.Error()}
		}

		result := depends.Evaluate(expr, target.Lookup, nil)
		if result.Satisfied {
			return policyError{
				message: fmt.Sprintf("%s active against installed package for %s", fieldName, cand.Name),
				force:   "force-breaks",
			}
		}
	}

	return nil
}

// checkHold implements spec.md §4.F check 9.
func checkHold(mgr *admin.Manager, cand *Candidate) error {
	status, err := mgr.GetField(cand.Name, "X-Selection")
	if err != nil || status != "hold" {
		return nil
	}

	return policyError{
		message: cand.Name + " is held and cannot be altered",
		force:   "force-hold",
	}
}
