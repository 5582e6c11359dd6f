package telemetry

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "production is valid", mutate: func(c *Config) { *c = *ProductionConfig() }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "bad exporter", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "jaeger"
		}, wantErr: true},
		{name: "sampling rate out of range", mutate: func(c *Config) { c.Tracing.SamplingRate = 1.5 }, wantErr: true},
		{name: "metrics without address", mutate: func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddress = ""
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsRecordAndExpose(t *testing.T) {
	cfg := DefaultConfig().Metrics
	cfg.Enabled = true

	m, err := NewMetrics(cfg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.RecordCollection("host", "AccountLockout", 120*time.Millisecond)
	m.RecordComparison("host", "AccountLockout", 2)
	m.RecordComparison("manager", "PasswordExpiration", 0)
	m.RecordRuleViolation("lockout-drift", "error")
	m.RecordReportGenerated()
	m.RecordError("SCHEMA_MISMATCH")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}

	text := string(body)
	for _, want := range []string{
		"pwdrift_collections_total",
		"pwdrift_drift_fields_total",
		`outcome="drifted"`,
		`outcome="clean"`,
		"pwdrift_rule_violations_total",
		"pwdrift_reports_generated_total",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStartMetricsServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	cfg := DefaultConfig().Metrics
	cfg.Enabled = true
	cfg.ListenAddress = addr

	m, err := NewMetrics(cfg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.RecordReportGenerated()

	if err := m.StartMetricsServer(); err != nil {
		t.Fatalf("StartMetricsServer: %v", err)
	}

	// The server starts asynchronously; poll until it answers.
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + cfg.Path)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "pwdrift_reports_generated_total") {
		t.Errorf("metrics endpoint missing report counter:\n%s", body)
	}
}

func TestDisabledMetricsAreSafe(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	// No panic on a disabled instance.
	m.RecordCollection("host", "AccountLockout", time.Second)
	m.RecordComparison("host", "AccountLockout", 1)
	m.RecordApply("host", "ok")
	m.RecordReportGenerated()
}

func TestTelemetryContextRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "json"

	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())
	if got := FromTelemetryContext(ctx); got != tel {
		t.Error("telemetry did not round-trip through context")
	}
	if FromContext(ctx) != tel.Logger {
		t.Error("logger did not round-trip through context")
	}
	if FromTelemetryContext(context.Background()) != nil {
		t.Error("empty context should yield nil telemetry")
	}
}
