package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pwdrift",
		Short: "Password policy drift auditor for virtualization platforms",
		Long: `pwdrift audits the password policies of a virtualization platform's
components (hypervisor hosts, directory service, management and network
appliances) against the platform release's published defaults or a
site-specific baseline file.

It retrieves live settings over SSH and appliance APIs, reports every
field that drifted, evaluates compliance rules over the result, and can
push a desired policy back out.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default pwdrift.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newDefaultsCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newRetrieveCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDriftCommand())
	rootCmd.AddCommand(newRulesCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}

// loadAppConfig reads the application config from --config or the default
// pwdrift.yaml in the working directory.
func loadAppConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = "pwdrift.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return config.Config{}, fmt.Errorf("config file %s not found (use --config)", path)
	}
	return config.Load(path)
}

// printJSON renders v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
