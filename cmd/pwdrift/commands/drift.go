package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pwdrift/pwdrift/pkg/collectors"
	"github.com/pwdrift/pwdrift/pkg/config"
	"github.com/pwdrift/pwdrift/pkg/engine"
	"github.com/pwdrift/pwdrift/pkg/policy"
	"github.com/pwdrift/pwdrift/pkg/report"
	"github.com/pwdrift/pwdrift/pkg/rules"
	"github.com/pwdrift/pwdrift/pkg/stores"
	"github.com/pwdrift/pwdrift/pkg/telemetry"
)

func newDriftCommand() *cobra.Command {
	var (
		baselinePath    string
		componentFilter string
		reportPath      string
		failOnDrift     bool
		traceEndpoint   string
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Detect password-policy drift across the configured components",
		Long: `Drift collects the live password policies from every configured
component, compares them against the expected side (the baseline file
when one is given or configured, the release defaults otherwise), and
produces a report.

Components that fail to respond are recorded in the report instead of
aborting the run. The compliance rules are evaluated against the
finished report and violations are printed. When the store is
configured the report is also saved to the local history.`,
		Example: `  # Compare against the release defaults
  pwdrift drift --config pwdrift.yaml

  # Compare against a site baseline, save the report, fail CI on drift
  pwdrift drift --baseline baseline.json --report report.json --fail-on-drift`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			tel, err := newTelemetry(cfg, traceEndpoint, metricsAddr)
			if err != nil {
				return err
			}
			defer tel.Shutdown(ctx)
			logger := tel.Logger

			if metricsAddr != "" {
				if err := tel.Metrics.StartMetricsServer(); err != nil {
					return err
				}
				logger.WithField("address", metricsAddr).Info("metrics endpoint listening")
			}

			if baselinePath == "" {
				baselinePath = cfg.Baseline.Path
			}
			baselineSource := "defaults"
			var baseline *policy.File
			if baselinePath != "" {
				baseline, err = config.LoadBaseline(ctx, baselinePath, cfg.Version)
				if err != nil {
					return err
				}
				baselineSource = baselinePath
			}

			registry, err := collectors.NewRegistryFromConfig(cfg)
			if err != nil {
				return err
			}
			defer registry.Close()

			ctx, span := tel.Tracer.StartDetectionSpan(ctx, string(cfg.Version))
			results, err := runDetection(ctx, cfg, tel, registry, baseline, componentFilter)
			if err != nil {
				telemetry.RecordError(span, err)
				span.End()
				return err
			}
			telemetry.RecordSuccess(span)
			span.End()

			rep := report.New(cfg.Version, baselineSource, results)
			tel.Metrics.RecordReportGenerated()
			logger.WithReportID(rep.ID).Infof("report generated: %d/%d checks drifted, %d failed",
				rep.Summary.DriftedChecks, rep.Summary.TotalChecks, rep.Summary.FailedChecks)

			if reportPath != "" {
				if err := rep.WriteFile(reportPath); err != nil {
					return err
				}
				logger.WithField("path", reportPath).Info("report written")
			}

			if cfg.Store.Path != "" {
				if err := saveToStore(ctx, cfg.Store.Path, rep); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
			}

			eval, err := evaluateRules(ctx, cfg, tel, rep)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := printJSON(rep); err != nil {
					return err
				}
			} else {
				printReport(rep, eval)
			}

			if !eval.Passed {
				return fmt.Errorf("compliance rules failed with %d violations", len(eval.Violations))
			}
			if failOnDrift && !rep.Compliant() {
				return fmt.Errorf("drift detected: %d of %d checks drifted, %d failed",
					rep.Summary.DriftedChecks, rep.Summary.TotalChecks, rep.Summary.FailedChecks)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baselinePath, "baseline", "", "baseline file holding the expected policies")
	cmd.Flags().StringVar(&componentFilter, "component", "", "check only this component")
	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "write the report to this file")
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "exit non-zero when any drift or failure is found")
	cmd.Flags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP endpoint for trace export")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address for the duration of the run")

	return cmd
}

// runDetection builds one task per (component, category) pair the
// release defines, runs them through the scheduler and turns the
// outcomes into report results. Collection and comparison failures
// become report entries rather than aborting the run.
func runDetection(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry, registry *collectors.Registry, baseline *policy.File, componentFilter string) ([]report.Result, error) {
	var tasks []engine.Task
	var results []report.Result
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
				return nil, err
			}
			if !ok {
				continue
			}

			idx := len(results)
			results = append(results, report.Result{Component: comp, Category: cat})
			tasks = append(tasks, engine.Task{
				Component: comp,
				Category:  cat,
				Run: func(ctx context.Context) error {
					return checkPair(ctx, tel, collector, expected, &results[idx])
				},
			})
		}
	}

	if componentFilter != "" && !matched {
		return nil, fmt.Errorf("component %s is not configured", componentFilter)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no components configured; nothing to check")
	}

	scheduler := engine.NewScheduler(len(registry.Components()), tel.Logger.Zerolog())
	outcomes, err := scheduler.Run(ctx, tasks)
	if err != nil {
		return nil, err
	}
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			results[i].Drifts = nil
			results[i].Error = outcome.Err.Error()
		}
	}
	return results, nil
}

// checkPair collects the live policy set and compares it against the
// expected one, filling in the result on success.
func checkPair(ctx context.Context, tel *telemetry.Telemetry, collector collectors.Collector, expected policy.Set, result *report.Result) error {
	comp, cat := string(result.Component), string(result.Category)
	logger := tel.Logger.WithTarget(comp, cat)

	ctx, span := tel.Tracer.StartCollectSpan(ctx, comp, cat)
	defer span.End()

	start := time.Now()
	current, err := collector.Collect(ctx, result.Category)
	if err != nil {
		telemetry.RecordError(span, err)
		tel.Metrics.RecordCollectionError(comp)
		logger.WithError(err).Error("collection failed")
		return err
	}
	telemetry.RecordSuccess(span)
	tel.Metrics.RecordCollection(comp, cat, time.Since(start))

	drifts, err := policy.Compare(current, expected)
	if err != nil {
		logger.WithError(err).Error("comparison failed")
		return engine.NewPermanentError("compare", err)
	}
	result.Drifts = drifts

	drifted := 0
	for _, d := range drifts {
		if !d.Match {
			drifted++
		}
	}
	tel.Metrics.RecordComparison(comp, cat, drifted)
	if drifted > 0 {
		logger.Warnf("%d of %d fields drifted", drifted, len(drifts))
	} else {
		logger.Debug("in sync")
	}
	return nil
}

func saveToStore(ctx context.Context, path string, rep *report.Report) error {
	store, err := stores.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()
	return store.SaveReport(ctx, rep)
}

// evaluateRules runs the builtin compliance rules plus any configured
// rule directory against the finished report.
func evaluateRules(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry, rep *report.Report) (*rules.EvalResult, error) {
	ruleEngine, err := rules.NewEngine(tel.Logger.Zerolog())
	if err != nil {
		return nil, err
	}
	if cfg.Rules.Dir != "" {
		if err := ruleEngine.LoadRules(ctx, []string{cfg.Rules.Dir}); err != nil {
			return nil, err
		}
	}
	eval, err := ruleEngine.Evaluate(ctx, rep)
	if err != nil {
		return nil, err
	}
	for _, v := range eval.Violations {
		tel.Metrics.RecordRuleViolation(v.Rule, string(v.Severity))
	}
	return eval, nil
}

// newTelemetry builds the telemetry stack from the application config.
// Tracing stays off unless an endpoint is given; metrics are recorded
// in-process and exposed over HTTP only when an address is set.
func newTelemetry(cfg config.Config, traceEndpoint, metricsAddr string) (*telemetry.Telemetry, error) {
	tcfg := telemetry.DefaultConfig()
	if cfg.Logging.Level != "" {
		tcfg.Logging.Level = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		tcfg.Logging.Format = cfg.Logging.Format
	}
	if verbose {
		tcfg.Logging.Level = "debug"
	}
	if traceEndpoint != "" {
		tcfg.Tracing.Enabled = true
		tcfg.Tracing.Exporter = "otlp"
		tcfg.Tracing.Endpoint = traceEndpoint
	}
	tcfg.Metrics.Enabled = true
	if metricsAddr != "" {
		tcfg.Metrics.ListenAddress = metricsAddr
	}
	return telemetry.NewTelemetry(tcfg)
}

func printReport(rep *report.Report, eval *rules.EvalResult) {
	fmt.Printf("Report %s (version %s, baseline %s)\n", rep.ID, rep.Version, rep.BaselineSource)
	for _, res := range rep.Results {
		if res.Error != "" {
			fmt.Printf("  %s / %s: FAILED: %s\n", res.Component, res.Category, res.Error)
			continue
		}
		var drifted []policy.Drift
		for _, d := range res.Drifts {
			if !d.Match {
				drifted = append(drifted, d)
			}
		}
		if len(drifted) == 0 {
			fmt.Printf("  %s / %s: ok\n", res.Component, res.Category)
			continue
		}
		fmt.Printf("  %s / %s: DRIFT\n", res.Component, res.Category)
		for _, d := range drifted {
			fmt.Printf("    %s: current=%v expected=%v\n", d.Field, d.Current, d.Expected)
		}
	}
	fmt.Printf("Summary: %d checks, %d drifted, %d failed, %d/%d fields mismatched\n",
		rep.Summary.TotalChecks, rep.Summary.DriftedChecks, rep.Summary.FailedChecks,
		rep.Summary.MismatchedFields, rep.Summary.TotalFields)

	if eval == nil {
		return
	}
	for _, w := range eval.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, v := range eval.Violations {
		fmt.Printf("violation [%s] %s: %s\n", v.Rule, v.Severity, v.Message)
	}
}
