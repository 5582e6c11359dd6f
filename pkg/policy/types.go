package policy

// Version is a platform release version used as an exact-match key into the
// default policy table (e.g. "5.1.0.0"). It is opaque: no semver parsing,
// no nearest-version fallback.
type Version string

// Component is a managed subsystem whose local accounts carry a password
// policy.
type Component string

const (
	// ComponentHost is a hypervisor host.
	ComponentHost Component = "host"

	// ComponentDirectory is the directory service (single sign-on domain).
	ComponentDirectory Component = "directory"

	// ComponentManager is the management server appliance.
	ComponentManager Component = "manager"

	// ComponentManagerRoot is the management server's root account, which
	// carries its own policy knobs separate from the appliance defaults.
	ComponentManagerRoot Component = "manager-root"

	// ComponentNetworkManager is the network manager appliance.
	ComponentNetworkManager Component = "network-manager"

	// ComponentNetworkEdge is a network edge node.
	ComponentNetworkEdge Component = "network-edge"

	// ComponentIdentityBroker is the identity broker appliance. Only
	// shipped from release 4.5.0.0 onward.
	ComponentIdentityBroker Component = "identity-broker"
)

// Components returns all managed components in canonical order.
func Components() []Component {
	return []Component{
		ComponentHost,
		ComponentDirectory,
		ComponentManager,
		ComponentManagerRoot,
		ComponentNetworkManager,
		ComponentNetworkEdge,
		ComponentIdentityBroker,
	}
}

// Category is one of the three password policy categories.
type Category string

const (
	// CategoryExpiration covers password lifetime settings.
	CategoryExpiration Category = "PasswordExpiration"

	// CategoryComplexity covers password composition requirements.
	CategoryComplexity Category = "PasswordComplexity"

	// CategoryLockout covers failed-authentication lockout settings.
	CategoryLockout Category = "AccountLockout"
)

// Categories returns all policy categories in canonical order.
func Categories() []Category {
	return []Category{CategoryExpiration, CategoryComplexity, CategoryLockout}
}

// Field is one named policy value inside a Set. Values are ints, strings or
// bools only.
type Field struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Set is a bag of policy values for one component and one category. It is a
// closed sum over ExpirationPolicy, ComplexityPolicy and LockoutPolicy.
// Sets are immutable once constructed; comparisons allocate fresh Drift
// values and never mutate their inputs.
type Set interface {
	// Component returns the managed component this set belongs to.
	Component() Component

	// Category returns the policy category of this set.
	Category() Category

	// Fields returns the policy values in schema order. Optional fields
	// that do not apply to the component are omitted entirely, so the
	// returned names always equal the (component, category) schema.
	Fields() []Field

	// sealed keeps the sum closed to this package's three concrete types.
	sealed()
}

// ExpirationPolicy holds password lifetime settings.
type ExpirationPolicy struct {
	Comp Component `json:"-"`

	// MaxDays is the maximum password age in days.
	MaxDays int `json:"maxDays"`

	// MinDays is the minimum number of days between password changes.
	MinDays int `json:"minDays"`

	// WarnDays is how many days before expiry a warning is issued.
	WarnDays int `json:"warnDays"`

	// Email receives expiry notifications. Present only on the management
	// server root account.
	Email *string `json:"email,omitempty"`
}

// Component implements Set.
func (p ExpirationPolicy) Component() Component { return p.Comp }

// Category implements Set.
func (p ExpirationPolicy) Category() Category { return CategoryExpiration }

// Fields implements Set.
func (p ExpirationPolicy) Fields() []Field {
	fields := []Field{
		{Name: "maxDays", Value: p.MaxDays},
		{Name: "minDays", Value: p.MinDays},
		{Name: "warnDays", Value: p.WarnDays},
	}
	if p.Email != nil {
		fields = append(fields, Field{Name: "email", Value: *p.Email})
	}
	return fields
}

func (p ExpirationPolicy) sealed() {}

// ComplexityPolicy holds password composition requirements.
type ComplexityPolicy struct {
	Comp Component `json:"-"`

	// MinLength is the minimum password length.
	MinLength int `json:"minLength"`

	// MinLowercase is the minimum number of lowercase characters.
	MinLowercase int `json:"minLowercase"`

	// MinUppercase is the minimum number of uppercase characters.
	MinUppercase int `json:"minUppercase"`

	// MinNumeric is the minimum number of numeric characters.
	MinNumeric int `json:"minNumeric"`

	// MinSpecial is the minimum number of special characters.
	MinSpecial int `json:"minSpecial"`

	// History is how many previous passwords cannot be reused.
	History int `json:"history"`

	// MaxRetries is how many attempts a user gets to pick a compliant
	// password. Present only on hypervisor hosts.
	MaxRetries *int `json:"maxRetries,omitempty"`

	// MinUnique is the minimum number of characters that must differ from
	// the previous password. Present only on network components.
	MinUnique *int `json:"minUnique,omitempty"`

	// MinAlphabetic is the minimum number of alphabetic characters.
	// Present only on the directory service, whose admin CLI reports it as
	// free text; see the comparator's normalization table.
	MinAlphabetic *string `json:"minAlphabetic,omitempty"`

	// MaxIdenticalAdjacent is the maximum run of identical adjacent
	// characters. Directory service only, text-sourced like MinAlphabetic.
	MaxIdenticalAdjacent *string `json:"maxIdenticalAdjacent,omitempty"`
}

// Component implements Set.
func (p ComplexityPolicy) Component() Component { return p.Comp }

// Category implements Set.
func (p ComplexityPolicy) Category() Category { return CategoryComplexity }

// Fields implements Set.
func (p ComplexityPolicy) Fields() []Field {
	fields := []Field{
		{Name: "minLength", Value: p.MinLength},
		{Name: "minLowercase", Value: p.MinLowercase},
		{Name: "minUppercase", Value: p.MinUppercase},
		{Name: "minNumeric", Value: p.MinNumeric},
		{Name: "minSpecial", Value: p.MinSpecial},
		{Name: "history", Value: p.History},
	}
	if p.MaxRetries != nil {
		fields = append(fields, Field{Name: "maxRetries", Value: *p.MaxRetries})
	}
	if p.MinUnique != nil {
		fields = append(fields, Field{Name: "minUnique", Value: *p.MinUnique})
	}
	if p.MinAlphabetic != nil {
		fields = append(fields, Field{Name: "minAlphabetic", Value: *p.MinAlphabetic})
	}
	if p.MaxIdenticalAdjacent != nil {
		fields = append(fields, Field{Name: "maxIdenticalAdjacent", Value: *p.MaxIdenticalAdjacent})
	}
	return fields
}

func (p ComplexityPolicy) sealed() {}

// LockoutPolicy holds failed-authentication lockout settings.
type LockoutPolicy struct {
	Comp Component `json:"-"`

	// MaxFailures is the number of failed attempts before lockout. On the
	// network manager this is the API channel; the CLI channel has its own
	// pair of fields below.
	MaxFailures int `json:"maxFailures"`

	// UnlockIntervalSec is how long an account stays locked, in seconds.
	UnlockIntervalSec int `json:"unlockIntervalSec"`

	// FailureIntervalSec is the window in which failures are counted.
	FailureIntervalSec int `json:"failureIntervalSec"`

	// CLIMaxFailures is the CLI-channel failure limit. Network manager
	// only.
	CLIMaxFailures *int `json:"cliMaxFailures,omitempty"`

	// CLIUnlockIntervalSec is the CLI-channel unlock interval. Network
	// manager only.
	CLIUnlockIntervalSec *int `json:"cliUnlockIntervalSec,omitempty"`
}

// Component implements Set.
func (p LockoutPolicy) Component() Component { return p.Comp }

// Category implements Set.
func (p LockoutPolicy) Category() Category { return CategoryLockout }

// Fields implements Set.
func (p LockoutPolicy) Fields() []Field {
	fields := []Field{
		{Name: "maxFailures", Value: p.MaxFailures},
		{Name: "unlockIntervalSec", Value: p.UnlockIntervalSec},
		{Name: "failureIntervalSec", Value: p.FailureIntervalSec},
	}
	if p.CLIMaxFailures != nil {
		fields = append(fields, Field{Name: "cliMaxFailures", Value: *p.CLIMaxFailures})
	}
	if p.CLIUnlockIntervalSec != nil {
		fields = append(fields, Field{Name: "cliUnlockIntervalSec", Value: *p.CLIUnlockIntervalSec})
	}
	return fields
}

func (p LockoutPolicy) sealed() {}

// schemaFields returns the exact field-name set for a (component, category)
// pair. The schema is fixed: optional struct fields are required for the
// components they apply to and forbidden elsewhere.
func schemaFields(comp Component, cat Category) ([]string, bool) {
	switch cat {
	case CategoryExpiration:
		base := []string{"maxDays", "minDays", "warnDays"}
		if comp == ComponentManagerRoot {
			return append(base, "email"), true
		}
		return base, true
	case CategoryComplexity:
		base := []string{"minLength", "minLowercase", "minUppercase", "minNumeric", "minSpecial", "history"}
		switch comp {
		case ComponentHost:
			return append(base, "maxRetries"), true
		case ComponentDirectory:
			return append(base, "minAlphabetic", "maxIdenticalAdjacent"), true
		case ComponentNetworkManager, ComponentNetworkEdge:
			return append(base, "minUnique"), true
		default:
			return base, true
		}
	case CategoryLockout:
		base := []string{"maxFailures", "unlockIntervalSec", "failureIntervalSec"}
		if comp == ComponentNetworkManager {
			return append(base, "cliMaxFailures", "cliUnlockIntervalSec"), true
		}
		return base, true
	}
	return nil, false
}

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }
