package repository

import (
	"sort"

	"github.com/dpkgo/dpkgo/pkg/admin"
	"github.com/dpkgo/dpkgo/pkg/version"
)

// UpgradeClass is the classification upgrade_list assigns a candidate,
// per spec.md §4.I.
type UpgradeClass string

const (
	ClassNotInstalled   UpgradeClass = "not_installed"
	ClassNeedUpgrade    UpgradeClass = "need_upgrade"
	ClassBlockedUpgrade UpgradeClass = "blocked_upgrade"
	ClassInstalled      UpgradeClass = "installed"
	ClassInvalid        UpgradeClass = "invalid"
)

// urgentLevels are the Urgency field values that promote a
// need_upgrade candidate into the urgent subset.
var urgentLevels = map[string]bool{"high": true, "emergency": true, "critical": true}

// UpgradeCandidate is one index entry compared against the installed
// database, classified per spec.md §4.I.
type UpgradeCandidate struct {
	Name             string
	InstalledVersion version.Version
	IndexVersion     version.Version
	Class            UpgradeClass
	RejectionCause   string
	Urgent           bool
}

// UpgradeList compares installed package versions against index,
// classifying every entry and splitting out the urgent subset of
// need_upgrade candidates whose Urgency is high, emergency or
// critical.
func UpgradeList(mgr *admin.Manager, index []IndexEntry) (all, urgent []UpgradeCandidate, err error) {
	for _, entry := range index {
		cand, classErr := classify(mgr, entry)
		if classErr != nil {
			return nil, nil, classErr
		}

		all = append(all, cand)

		if cand.Class == ClassNeedUpgrade && cand.Urgent {
			urgent = append(urgent, cand)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	sort.Slice(urgent, func(i, j int) bool { return urgent[i].Name < urgent[j].Name })

	return all, urgent, nil
}

func classify(mgr *admin.Manager, entry IndexEntry) (UpgradeCandidate, error) {
	name := entry.Name()
	if name == "" {
		return UpgradeCandidate{Class: ClassInvalid, RejectionCause: "missing Package field"}, nil
	}

	indexVer, err := version.Parse(entry.Version())
	if err != nil {
		return UpgradeCandidate{Name: name, Class: ClassInvalid, RejectionCause: err.Error()}, nil
	}

	status, statusErr := mgr.PackageStatus(name)
	if statusErr != nil || status == "not-installed" {
		return UpgradeCandidate{Name: name, IndexVersion: indexVer, Class: ClassNotInstalled}, nil
	}

	rawInstalled, _ := mgr.GetField(name, "Version")

	installedVer, err := version.Parse(rawInstalled)
	if err != nil {
		return UpgradeCandidate{Name: name, Class: ClassInvalid, RejectionCause: err.Error()}, nil
	}

	cand := UpgradeCandidate{Name: name, InstalledVersion: installedVer, IndexVersion: indexVer}

	switch {
	case status == "hold":
		cand.Class = ClassBlockedUpgrade
		cand.RejectionCause = "package is on hold"
	case version.Compare(indexVer, installedVer) > 0:
		cand.Class = ClassNeedUpgrade

		if urgencyField, ok := entry.Control.Get("Urgency"); ok {
			cand.Urgent = urgentLevels[urgencyField.Value]
		}
	default:
		cand.Class = ClassInstalled
	}

	return cand, nil
}
