package statestore

import "github.com/swe-orchestrator/orchestrator/pkg/config"

// upgradeFunc migrates a flat field map from one state_version to the next.
type upgradeFunc func(fields map[string]any) map[string]any

// upgraders is keyed by the version a snapshot is migrating FROM; each
// entry produces the next version's field map. A snapshot is migrated by
// repeatedly applying upgraders[v] until it reaches config.CurrentStateVersion
// (spec §4.3 Open Question: "state_version migration via an explicit
// upgrade-function table").
var upgraders = map[int]upgradeFunc{
	// Reserved for the first real migration (e.g. version 1 -> 2). The
	// table is empty today because CurrentStateVersion is still 1.
}

// migrate applies every upgrader from the snapshot's recorded version up
// to config.CurrentStateVersion, returning the migrated field map and its
// resulting version.
func migrate(fields map[string]any, from int) (map[string]any, int) {
	version := from
	for version < config.CurrentStateVersion {
		up, ok := upgraders[version]
		if !ok {
			break
		}
		fields = up(fields)
		version++
	}
	fields["state_version"] = version
	return fields, version
}
