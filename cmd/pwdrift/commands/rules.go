package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/config"
	"github.com/pwdrift/pwdrift/pkg/report"
	"github.com/pwdrift/pwdrift/pkg/rules"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and run the compliance rules",
	}
	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesEvalCommand())
	return cmd
}

func newRulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the builtin and configured compliance rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := newRulesEngine(cmd)
			if err != nil {
				return err
			}
			list := engine.List()

			if jsonOutput {
				return printJSON(list)
			}
			for _, rule := range list {
				origin := "custom"
				if rule.Builtin {
					origin = "builtin"
				}
				state := "enabled"
				if !rule.Enabled {
					state = "disabled"
				}
				fmt.Printf("%s (%s, %s, %s)\n", rule.Name, origin, rule.Severity, state)
				if rule.Description != "" {
					fmt.Printf("  %s\n", rule.Description)
				}
			}
			return nil
		},
	}
}

func newRulesEvalCommand() *cobra.Command {
	var (
		reportPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the compliance rules against a saved report",
		Long: `Evaluate the compliance rules against a saved report.

With --watch (or rules.watch in the config file) the command keeps
running and re-evaluates the report whenever a rule file under the
configured rules directory changes.`,
		Example: `  pwdrift drift --report report.json
  pwdrift rules eval --report report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportPath == "" {
				return fmt.Errorf("--report is required")
			}
			rep, err := report.LoadFile(reportPath)
			if err != nil {
				return err
			}

			engine, cfg, err := newRulesEngine(cmd)
			if err != nil {
				return err
			}

			if cfg != nil && cfg.Rules.Watch && !cmd.Flags().Changed("watch") {
				watch = true
			}
			if watch {
				if cfg == nil || cfg.Rules.Dir == "" {
					return fmt.Errorf("--watch requires a rules directory in the config file")
				}
				return watchAndEvaluate(cmd, engine, cfg.Rules.Dir, rep)
			}

			eval, err := engine.Evaluate(cmd.Context(), rep)
			if err != nil {
				return err
			}
			if err := printEval(eval); err != nil {
				return err
			}
			if !eval.Passed {
				return fmt.Errorf("compliance rules failed with %d violations", len(eval.Violations))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "report file to evaluate")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-evaluate when rule files change")

	return cmd
}

// watchAndEvaluate evaluates once, then re-evaluates after every rule
// reload until the context is cancelled.
func watchAndEvaluate(cmd *cobra.Command, engine *rules.Engine, dir string, rep *report.Report) error {
	ctx := cmd.Context()

	evaluate := func() {
		eval, err := engine.Evaluate(ctx, rep)
		if err != nil {
			log.Error().Err(err).Msg("rule evaluation failed")
			return
		}
		if err := printEval(eval); err != nil {
			log.Error().Err(err).Msg("failed to print evaluation")
		}
	}
	evaluate()

	if err := engine.WatchRules(ctx, []string{dir}, evaluate); err != nil {
		return err
	}
	log.Info().Str("dir", dir).Msg("watching rules, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func printEval(eval *rules.EvalResult) error {
	if jsonOutput {
		return printJSON(eval)
	}
	for _, w := range eval.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, v := range eval.Violations {
		fmt.Printf("violation [%s] %s: %s\n", v.Rule, v.Severity, v.Message)
	}
	if len(eval.Violations) == 0 {
		fmt.Println("no violations")
	}
	return nil
}

// newRulesEngine builds an engine with the builtins plus the configured
// rule directory. A missing config file is fine here; the builtins still
// apply and the returned config is nil.
func newRulesEngine(cmd *cobra.Command) (*rules.Engine, *config.Config, error) {
	engine, err := rules.NewEngine(log.Logger)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return engine, nil, nil
	}
	if cfg.Rules.Dir != "" {
		if err := engine.LoadRules(cmd.Context(), []string{cfg.Rules.Dir}); err != nil {
			return nil, nil, err
		}
	}
	return engine, &cfg, nil
}
