package collectors

import (
	"context"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// Collector reads and writes the live password policy of one component.
type Collector interface {
	// Component returns the component this collector manages.
	Component() policy.Component

	// Collect fetches the current policy values for one category.
	Collect(ctx context.Context, cat policy.Category) (policy.Set, error)

	// Apply pushes a desired policy set to the component. The set's
	// component must match the collector's.
	Apply(ctx context.Context, set policy.Set) error

	// Close releases any connections held by the collector.
	Close() error
}

// categorySlugs maps policy categories to the identifiers used on the
// wire, both in polctl CLI arguments and in appliance API paths.
var categorySlugs = map[policy.Category]string{
	policy.CategoryExpiration: "password-expiration",
	policy.CategoryComplexity: "password-complexity",
	policy.CategoryLockout:    "account-lockout",
}

// CategorySlug returns the wire identifier for a category.
func CategorySlug(cat policy.Category) (string, bool) {
	slug, ok := categorySlugs[cat]
	return slug, ok
}
