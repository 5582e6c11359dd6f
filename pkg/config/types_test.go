package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pwdrift.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
version: "5.1.0.0"
baseline:
  path: baseline.json
components:
  - name: host
    address: host01.lab.local
    user: root
  - name: network-manager
    endpoint: https://netmgr.lab.local
    user: admin
ssh:
  port: 2222
  command_timeout_sec: 120
store:
  path: /var/lib/pwdrift/history.db
rules:
  dir: /etc/pwdrift/rules
  watch: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != policy.Version("5.1.0.0") {
		t.Errorf("version = %q", cfg.Version)
	}
	if len(cfg.Components) != 2 {
		t.Fatalf("components = %d, want 2", len(cfg.Components))
	}
	if cfg.Components[1].Name != policy.ComponentNetworkManager {
		t.Errorf("second component = %s", cfg.Components[1].Name)
	}
	if cfg.SSH.Port != 2222 {
		t.Errorf("ssh port = %d, want 2222", cfg.SSH.Port)
	}
	// Unset values keep their defaults.
	if cfg.SSH.ConnectTimeoutSec != 30 {
		t.Errorf("connect timeout = %d, want default 30", cfg.SSH.ConnectTimeoutSec)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("logging format = %q, want default console", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
version: "5.1.0.0"
verison_typo: "oops"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("unknown YAML keys must be rejected")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing version",
			content: "components: []\n",
			wantErr: "Version",
		},
		{
			name: "unknown component name",
			content: `
version: "5.1.0.0"
components:
  - name: mainframe
`,
			wantErr: "oneof",
		},
		{
			name: "bad ssh port",
			content: `
version: "5.1.0.0"
ssh:
  port: 70000
`,
			wantErr: "max",
		},
		{
			name: "duplicate component",
			content: `
version: "5.1.0.0"
components:
  - name: host
    address: host01
  - name: host
    address: host02
`,
			wantErr: "configured twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEmptyConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	// Empty config is all defaults, which fail validation on the missing
	// version; the decode itself must not error.
	if err == nil {
		t.Fatal("empty config lacks a version and must fail validation")
	}
	if cfg.SSH.Port != 22 {
		t.Errorf("defaults not applied, ssh port = %d", cfg.SSH.Port)
	}
}
