package policy

// The default policy table records what each platform release shipped
// out of the box, per component and category. The values are vendor data,
// not derived from any rule, so the table is maintained by hand and
// lookups are exact-match only: an unknown version fails instead of
// falling back to the nearest row.
//
// Components that did not exist in a release are absent from that
// release's row entirely, so callers can tell "not applicable" from
// "value is zero".

type componentDefaults map[Component]map[Category]Set

// defaultTable is read-only after package init. releaseOrder drives
// deterministic iteration; the two must stay in sync.
var (
	releaseOrder = []Version{
		"4.4.0.0",
		"4.5.0.0",
		"4.5.1.0",
		"4.5.2.0",
		"5.0.0.0",
		"5.1.0.0",
		"5.2.0.0",
	}
	defaultTable = buildDefaultTable()
)

// SupportedVersions returns the versions the default table has rows for,
// in release order.
func SupportedVersions() []Version {
	out := make([]Version, len(releaseOrder))
	copy(out, releaseOrder)
	return out
}

// Defaults returns the out-of-the-box policy sets for a platform release,
// ordered by component then category. It fails with UNSUPPORTED_VERSION
// when the table has no row for the version.
func Defaults(version Version) ([]Set, error) {
	row, ok := defaultTable[version]
	if !ok {
		return nil, newError(CodeUnsupportedVersion, "no default policy table for version %q (supported: %v)", version, releaseOrder)
	}

	var sets []Set
	for _, comp := range Components() {
		cats, ok := row[comp]
		if !ok {
			// Component not shipped in this release.
			continue
		}
		for _, cat := range Categories() {
			sets = append(sets, cats[cat])
		}
	}
	return sets, nil
}

// DefaultSet returns the default policy for one component and category.
// It fails with UNSUPPORTED_VERSION for unknown versions and returns
// ok=false when the component did not exist in the release.
func DefaultSet(version Version, comp Component, cat Category) (Set, bool, error) {
	row, exists := defaultTable[version]
	if !exists {
		return nil, false, newError(CodeUnsupportedVersion, "no default policy table for version %q", version)
	}
	cats, ok := row[comp]
	if !ok {
		return nil, false, nil
	}
	set, ok := cats[cat]
	return set, ok, nil
}

func buildDefaultTable() map[Version]componentDefaults {
	table := make(map[Version]componentDefaults, len(releaseOrder))

	v440 := componentDefaults{
		ComponentHost: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentHost, MaxDays: 99999, MinDays: 0, WarnDays: 7},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentHost, MinLength: 7, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MaxRetries: intp(3)},
			CategoryLockout:    LockoutPolicy{Comp: ComponentHost, MaxFailures: 5, UnlockIntervalSec: 900, FailureIntervalSec: 900},
		},
		ComponentDirectory: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentDirectory, MaxDays: 90, MinDays: 0, WarnDays: 7},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentDirectory, MinLength: 8, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MinAlphabetic: strp("2"), MaxIdenticalAdjacent: strp("3")},
			CategoryLockout:    LockoutPolicy{Comp: ComponentDirectory, MaxFailures: 5, UnlockIntervalSec: 300, FailureIntervalSec: 180},
		},
		ComponentManager: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentManager, MaxDays: 90, MinDays: 0, WarnDays: 7},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentManager, MinLength: 8, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5},
			CategoryLockout:    LockoutPolicy{Comp: ComponentManager, MaxFailures: 3, UnlockIntervalSec: 900, FailureIntervalSec: 900},
		},
		ComponentManagerRoot: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentManagerRoot, MaxDays: 90, MinDays: 0, WarnDays: 7, Email: strp("")},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentManagerRoot, MinLength: 8, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5},
			// The 300 second unlock interval was raised to a day in
			// 4.5.0.0; see release445.
			CategoryLockout: LockoutPolicy{Comp: ComponentManagerRoot, MaxFailures: 3, UnlockIntervalSec: 300, FailureIntervalSec: 900},
		},
		ComponentNetworkManager: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentNetworkManager, MaxDays: 90, MinDays: 0, WarnDays: 7},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentNetworkManager, MinLength: 12, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MinUnique: intp(0)},
			CategoryLockout:    LockoutPolicy{Comp: ComponentNetworkManager, MaxFailures: 5, UnlockIntervalSec: 900, FailureIntervalSec: 120, CLIMaxFailures: intp(5), CLIUnlockIntervalSec: intp(300)},
		},
		ComponentNetworkEdge: {
			CategoryExpiration: ExpirationPolicy{Comp: ComponentNetworkEdge, MaxDays: 90, MinDays: 0, WarnDays: 7},
			CategoryComplexity: ComplexityPolicy{Comp: ComponentNetworkEdge, MinLength: 12, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MinUnique: intp(0)},
			CategoryLockout:    LockoutPolicy{Comp: ComponentNetworkEdge, MaxFailures: 5, UnlockIntervalSec: 300, FailureIntervalSec: 120},
		},
		// No identity broker before 4.5.0.0.
	}
	table["4.4.0.0"] = v440

	// 4.5.0.0 ships the identity broker and raises the manager root
	// account's unlock interval.
	v450 := cloneDefaults(v440)
	v450[ComponentManagerRoot][CategoryLockout] = LockoutPolicy{Comp: ComponentManagerRoot, MaxFailures: 3, UnlockIntervalSec: 86400, FailureIntervalSec: 900}
	v450[ComponentIdentityBroker] = map[Category]Set{
		CategoryExpiration: ExpirationPolicy{Comp: ComponentIdentityBroker, MaxDays: 90, MinDays: 0, WarnDays: 7},
		CategoryComplexity: ComplexityPolicy{Comp: ComponentIdentityBroker, MinLength: 8, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5},
		CategoryLockout:    LockoutPolicy{Comp: ComponentIdentityBroker, MaxFailures: 5, UnlockIntervalSec: 900, FailureIntervalSec: 180},
	}
	table["4.5.0.0"] = v450
	table["4.5.1.0"] = cloneDefaults(v450)
	table["4.5.2.0"] = cloneDefaults(v450)

	// 5.0.0.0 bundles the next major network-manager release, which
	// tightened its out-of-the-box complexity settings.
	v500 := cloneDefaults(v450)
	v500[ComponentNetworkManager][CategoryComplexity] = ComplexityPolicy{Comp: ComponentNetworkManager, MinLength: 15, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MinUnique: intp(4)}
	v500[ComponentNetworkEdge][CategoryComplexity] = ComplexityPolicy{Comp: ComponentNetworkEdge, MinLength: 15, MinLowercase: 1, MinUppercase: 1, MinNumeric: 1, MinSpecial: 1, History: 5, MinUnique: intp(4)}
	table["5.0.0.0"] = v500
	table["5.1.0.0"] = cloneDefaults(v500)
	table["5.2.0.0"] = cloneDefaults(v500)

	return table
}

// cloneDefaults copies the per-component maps so later releases can
// override single entries without aliasing earlier rows. Sets themselves
// are immutable values and are shared.
func cloneDefaults(src componentDefaults) componentDefaults {
	dst := make(componentDefaults, len(src))
	for comp, cats := range src {
		catCopy := make(map[Category]Set, len(cats))
		for cat, set := range cats {
			catCopy[cat] = set
		}
		dst[comp] = catCopy
	}
	return dst
}
