package ssh

import "testing"

func TestConnectionInfoBeforeConnect(t *testing.T) {
	cfg := DefaultConfig("host01.lab.local", "audit")
	cfg.AuthMethod = AuthMethodPassword
	cfg.Password = "secret"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.IsConnected() {
		t.Error("new client should not report connected")
	}

	info := client.ConnectionInfo()
	if info.Host != "host01.lab.local" {
		t.Errorf("host = %q, want host01.lab.local", info.Host)
	}
	if info.Port != 22 {
		t.Errorf("port = %d, want 22", info.Port)
	}
	if info.User != "audit" {
		t.Errorf("user = %q, want audit", info.User)
	}
	if !info.ConnectedAt.IsZero() || !info.LastActivity.IsZero() {
		t.Errorf("unconnected client should report zero timestamps: %+v", info)
	}
}
