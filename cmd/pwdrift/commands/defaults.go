package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func newDefaultsCommand() *cobra.Command {
	var (
		versionFlag   string
		componentFlag string
		categoryFlag  string
	)

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show the default password policies for a platform release",
		Long: `Show the published default password policies for a platform release.

Without --version this lists the supported releases. With --version it
prints every component's default policy sets, optionally narrowed to one
component or category.`,
		Example: `  # List supported releases
  pwdrift defaults

  # All defaults for one release
  pwdrift defaults --version 5.1.0.0

  # Just the host lockout defaults
  pwdrift defaults --version 5.1.0.0 --component host --category AccountLockout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag == "" {
				if jsonOutput {
					return printJSON(policy.SupportedVersions())
				}
				for _, v := range policy.SupportedVersions() {
					fmt.Println(v)
				}
				return nil
			}

			sets, err := policy.Defaults(policy.Version(versionFlag))
			if err != nil {
				return err
			}

			var selected []policy.Set
			for _, set := range sets {
				if componentFlag != "" && string(set.Component()) != componentFlag {
					continue
				}
				if categoryFlag != "" && string(set.Category()) != categoryFlag {
					continue
				}
				selected = append(selected, set)
			}
			if len(selected) == 0 {
				return fmt.Errorf("no defaults match component=%q category=%q", componentFlag, categoryFlag)
			}

			if jsonOutput {
				type entry struct {
					Component policy.Component `json:"component"`
					Category  policy.Category  `json:"category"`
					Fields    []policy.Field   `json:"fields"`
				}
				out := make([]entry, 0, len(selected))
				for _, set := range selected {
					out = append(out, entry{set.Component(), set.Category(), set.Fields()})
				}
				return printJSON(out)
			}

			for _, set := range selected {
				fmt.Printf("%s / %s\n", set.Component(), set.Category())
				for _, f := range set.Fields() {
					fmt.Printf("  %s = %v\n", f.Name, f.Value)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "platform release version")
	cmd.Flags().StringVar(&componentFlag, "component", "", "limit to one component")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "limit to one policy category")

	return cmd
}
