package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pwdrift/pwdrift/pkg/policy"
	"github.com/pwdrift/pwdrift/pkg/transports/ssh"
)

// HostCollector reads and writes hypervisor host password policy over SSH
// using the polctl CLI shipped on the host.
type HostCollector struct {
	transport ssh.Transport
}

// NewHostCollector wraps an SSH transport. The transport is connected
// lazily on first use.
func NewHostCollector(transport ssh.Transport) *HostCollector {
	return &HostCollector{transport: transport}
}

// Component implements Collector.
func (c *HostCollector) Component() policy.Component {
	return policy.ComponentHost
}

// Collect runs "polctl get <category>" on the host and parses the
// key=value output into a typed set.
func (c *HostCollector) Collect(ctx context.Context, cat policy.Category) (policy.Set, error) {
	slug, ok := CategorySlug(cat)
	if !ok {
		return nil, fmt.Errorf("unknown policy category %q", cat)
	}
	if err := c.transport.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to host: %w", err)
	}

	cmd := "polctl get " + slug
	stdout, stderr, err := c.transport.ExecuteCommand(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("command %q failed: %w (stderr: %s)", cmd, err, strings.TrimSpace(stderr))
	}

	kv, err := parseKeyValues(stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", slug, err)
	}
	set, err := setFromKeyValues(policy.ComponentHost, cat, kv)
	if err != nil {
		return nil, fmt.Errorf("host %s policy: %w", slug, err)
	}

	log.Debug().Str("category", slug).Int("fields", len(kv)).Msg("collected host policy")
	return set, nil
}

// Apply runs "polctl set <category> key=value ..." on the host.
func (c *HostCollector) Apply(ctx context.Context, set policy.Set) error {
	if set.Component() != policy.ComponentHost {
		return fmt.Errorf("cannot apply %s policy through the host collector", set.Component())
	}
	slug, ok := CategorySlug(set.Category())
	if !ok {
		return fmt.Errorf("unknown policy category %q", set.Category())
	}
	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to host: %w", err)
	}

	cmd := "polctl set " + slug + " " + strings.Join(keyValueArgs(set), " ")
	_, stderr, err := c.transport.ExecuteCommand(ctx, cmd)
	if err != nil {
		return fmt.Errorf("command %q failed: %w (stderr: %s)", cmd, err, strings.TrimSpace(stderr))
	}

	log.Info().Str("category", slug).Msg("applied host policy")
	return nil
}

// Close disconnects the underlying SSH transport.
func (c *HostCollector) Close() error {
	return c.transport.Disconnect()
}
