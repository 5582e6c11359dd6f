package collectors

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pwdrift/pwdrift/pkg/config"
	"github.com/pwdrift/pwdrift/pkg/policy"
	"github.com/pwdrift/pwdrift/pkg/transports/ssh"
)

// Registry maps components to their collectors.
type Registry struct {
	mu         sync.RWMutex
	collectors map[policy.Component]Collector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[policy.Component]Collector)}
}

// Register adds a collector. Registering a component twice is an error.
func (r *Registry) Register(c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	comp := c.Component()
	if _, exists := r.collectors[comp]; exists {
		return fmt.Errorf("collector for %s already registered", comp)
	}
	r.collectors[comp] = c
	return nil
}

// Get retrieves the collector for a component.
func (r *Registry) Get(comp policy.Component) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[comp]
	return c, ok
}

// Components returns the registered components in canonical order.
func (r *Registry) Components() []policy.Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var comps []policy.Component
	for _, comp := range policy.Components() {
		if _, ok := r.collectors[comp]; ok {
			comps = append(comps, comp)
		}
	}
	return comps
}

// Close closes every registered collector, returning the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for comp, c := range r.collectors {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s collector: %w", comp, err)
		}
	}
	r.collectors = make(map[policy.Component]Collector)
	return firstErr
}

// NewRegistryFromConfig builds collectors for every component in the
// application config. Hosts get an SSH collector; everything else is
// reached through its appliance API endpoint.
func NewRegistryFromConfig(cfg config.Config) (*Registry, error) {
	registry := NewRegistry()
	for _, comp := range cfg.Components {
		collector, err := newCollector(cfg, comp)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", comp.Name, err)
		}
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func newCollector(cfg config.Config, comp config.ComponentConfig) (Collector, error) {
	if comp.Name == policy.ComponentHost {
		if comp.Address == "" {
			return nil, fmt.Errorf("address is required for SSH collection")
		}
		sshCfg := sshConfigFor(cfg.SSH, comp)
		client, err := ssh.NewClient(sshCfg)
		if err != nil {
			return nil, fmt.Errorf("invalid SSH config: %w", err)
		}
		return NewHostCollector(client), nil
	}

	return NewRESTCollector(RESTConfig{
		Component:          comp.Name,
		Endpoint:           comp.Endpoint,
		User:               comp.User,
		Password:           comp.Password,
		Token:              comp.Token,
		InsecureSkipVerify: comp.InsecureSkipVerify,
	})
}

func sshConfigFor(shared config.SSHConfig, comp config.ComponentConfig) *ssh.Config {
	host := comp.Address
	port := 0
	if h, p, err := net.SplitHostPort(comp.Address); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			host, port = h, n
		}
	}

	sshCfg := ssh.DefaultConfig(host, comp.User)
	switch {
	case port > 0:
		sshCfg.Port = port
	case shared.Port > 0:
		sshCfg.Port = shared.Port
	}
	if shared.ConnectTimeoutSec > 0 {
		sshCfg.ConnectionTimeout = time.Duration(shared.ConnectTimeoutSec) * time.Second
	}
	if shared.CommandTimeoutSec > 0 {
		sshCfg.CommandTimeout = time.Duration(shared.CommandTimeoutSec) * time.Second
	}
	sshCfg.StrictHostKeyChecking = shared.StrictHostKeyChecking
	if shared.KnownHostsPath != "" {
		sshCfg.KnownHostsPath = shared.KnownHostsPath
	}
	if comp.Password != "" {
		sshCfg.AuthMethod = ssh.AuthMethodPassword
		sshCfg.Password = comp.Password
	} else {
		sshCfg.AuthMethod = ssh.AuthMethodKey
		sshCfg.PrivateKeyPath = shared.PrivateKeyPath
	}
	return sshCfg
}
