package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func newGenerateCommand() *cobra.Command {
	var (
		versionFlag string
		outPath     string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a baseline file seeded with release defaults",
		Long: `Generate a baseline file seeded with the default password policies of
one platform release. The file can then be edited to carry site-specific
expected values and fed to drift detection with --baseline.

An existing file is never overwritten unless --force is given.`,
		Example: `  # Seed a baseline for release 5.1.0.0
  pwdrift generate --version 5.1.0.0 --out baseline.json

  # Replace an existing baseline
  pwdrift generate --version 5.1.0.0 --out baseline.json --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag == "" {
				return fmt.Errorf("--version is required")
			}
			if err := policy.Generate(policy.Version(versionFlag), outPath, force); err != nil {
				return err
			}
			log.Info().Str("path", outPath).Str("version", versionFlag).Msg("baseline generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "platform release version")
	cmd.Flags().StringVarP(&outPath, "out", "o", "baseline.json", "output file path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
