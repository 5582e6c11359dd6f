package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/collectors"
	"github.com/pwdrift/pwdrift/pkg/config"
	"github.com/pwdrift/pwdrift/pkg/policy"
)

func newApplyCommand() *cobra.Command {
	var (
		baselinePath    string
		componentFilter string
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Push the expected password policies onto the components",
		Long: `Apply writes the expected password policies to every configured
component. The expected side comes from the baseline file when one is
given (or configured), otherwise from the release defaults.

With --dry-run nothing is written; instead each component is collected
and the fields that would change are printed.`,
		Example: `  # Show what would change
  pwdrift apply --baseline baseline.json --dry-run

  # Enforce the release defaults on one component
  pwdrift apply --component network-manager`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if baselinePath == "" {
				baselinePath = cfg.Baseline.Path
			}
			var baseline *policy.File
			if baselinePath != "" {
				baseline, err = config.LoadBaseline(ctx, baselinePath, cfg.Version)
				if err != nil {
					return err
				}
			}

			registry, err := collectors.NewRegistryFromConfig(cfg)
			if err != nil {
				return err
			}
			defer registry.Close()

			var failures int
			matched := false
			for _, comp := range registry.Components() {
				if componentFilter != "" && comp != policy.Component(componentFilter) {
					continue
				}
				matched = true
				collector, _ := registry.Get(comp)
				for _, cat := range policy.Categories() {
					expected, ok, err := expectedSet(cfg.Version, baseline, comp, cat)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}

					if dryRun {
						if err := previewApply(cmd, collector, expected); err != nil {
							log.Error().Err(err).
								Str("component", string(comp)).
								Str("category", string(cat)).
								Msg("collection failed")
							failures++
						}
						continue
					}

					if err := collector.Apply(ctx, expected); err != nil {
						log.Error().Err(err).
							Str("component", string(comp)).
							Str("category", string(cat)).
							Msg("apply failed")
						failures++
						continue
					}
					log.Info().
						Str("component", string(comp)).
						Str("category", string(cat)).
						Msg("policy applied")
				}
			}

			if componentFilter != "" && !matched {
				return fmt.Errorf("component %s is not configured", componentFilter)
			}
			if failures > 0 {
				return fmt.Errorf("%d operations failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baselinePath, "baseline", "", "baseline file holding the expected policies")
	cmd.Flags().StringVar(&componentFilter, "component", "", "apply only to this component")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing")

	return cmd
}

// previewApply collects the live set and prints the fields that differ
// from the expected one.
func previewApply(cmd *cobra.Command, collector collectors.Collector, expected policy.Set) error {
	current, err := collector.Collect(cmd.Context(), expected.Category())
	if err != nil {
		return err
	}
	drifts, err := policy.Compare(current, expected)
	if err != nil {
		return err
	}

	comp, cat := expected.Component(), expected.Category()
	if !policy.HasDrift(drifts) {
		fmt.Printf("%s / %s: in sync\n", comp, cat)
		return nil
	}
	fmt.Printf("%s / %s:\n", comp, cat)
	for _, d := range drifts {
		if d.Match {
			continue
		}
		fmt.Printf("  %s: %v -> %v\n", d.Field, d.Current, d.Expected)
	}
	return nil
}

// expectedSet resolves the expected policy for one (component, category)
// pair: the baseline entry when the file carries one, the release default
// otherwise. ok is false when the release does not define the pair at all.
func expectedSet(version policy.Version, baseline *policy.File, comp policy.Component, cat policy.Category) (policy.Set, bool, error) {
	if baseline != nil {
		set, ok, err := baseline.Set(version, comp, cat)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return set, true, nil
		}
	}
	return policy.DefaultSet(version, comp, cat)
}
