package collectors

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// fakeTransport records executed commands and replies from a canned map.
type fakeTransport struct {
	responses map[string]string
	commands  []string
	connected bool
}

func (f *fakeTransport) Connect(_ context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.connected = false
	return nil
}

func (f *fakeTransport) HealthCheck(_ context.Context) error { return nil }

func (f *fakeTransport) ExecuteCommand(_ context.Context, cmd string) (string, string, error) {
	f.commands = append(f.commands, cmd)
	out, ok := f.responses[cmd]
	if !ok {
		return "", "unknown command", fmt.Errorf("exit status 1")
	}
	return out, "", nil
}

func (f *fakeTransport) UploadFile(_ context.Context, _, _ string, _ uint32) error {
	return nil
}

func TestHostCollectorCollect(t *testing.T) {
	transport := &fakeTransport{responses: map[string]string{
		"polctl get account-lockout": "maxFailures=5\nunlockIntervalSec=900\nfailureIntervalSec=900\n",
	}}
	c := NewHostCollector(transport)

	set, err := c.Collect(context.Background(), policy.CategoryLockout)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !transport.connected {
		t.Error("Collect should connect the transport")
	}
	lockout := set.(policy.LockoutPolicy)
	if lockout.MaxFailures != 5 {
		t.Errorf("maxFailures = %d, want 5", lockout.MaxFailures)
	}
}

func TestHostCollectorCollectCommandFailure(t *testing.T) {
	c := NewHostCollector(&fakeTransport{responses: map[string]string{}})
	if _, err := c.Collect(context.Background(), policy.CategoryExpiration); err == nil {
		t.Error("failed command should surface an error")
	}
}

func TestHostCollectorCollectMalformedOutput(t *testing.T) {
	transport := &fakeTransport{responses: map[string]string{
		"polctl get password-expiration": "not key value output",
	}}
	c := NewHostCollector(transport)
	if _, err := c.Collect(context.Background(), policy.CategoryExpiration); err == nil {
		t.Error("malformed output should surface an error")
	}
}

func TestHostCollectorApply(t *testing.T) {
	transport := &fakeTransport{responses: map[string]string{
		"polctl set account-lockout failureIntervalSec=900 maxFailures=5 unlockIntervalSec=900": "",
	}}
	c := NewHostCollector(transport)

	err := c.Apply(context.Background(), policy.LockoutPolicy{
		Comp:               policy.ComponentHost,
		MaxFailures:        5,
		UnlockIntervalSec:  900,
		FailureIntervalSec: 900,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(transport.commands) != 1 || !strings.HasPrefix(transport.commands[0], "polctl set account-lockout ") {
		t.Errorf("unexpected commands: %v", transport.commands)
	}
}

func TestHostCollectorApplyRejectsOtherComponents(t *testing.T) {
	c := NewHostCollector(&fakeTransport{})
	err := c.Apply(context.Background(), policy.ExpirationPolicy{
		Comp: policy.ComponentManager, MaxDays: 90, MinDays: 0, WarnDays: 7,
	})
	if err == nil {
		t.Error("applying a manager set through the host collector should fail")
	}
}
