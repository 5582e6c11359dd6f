// Package collectors fetches live password policy settings from managed
// components and pushes desired settings back to them.
//
// Each component has one Collector. Hypervisor hosts are reached over SSH
// and expose their policy through polctl CLI output; appliance components
// (directory, manager, network manager and friends) expose a small JSON
// API. A Registry maps components to their collectors and is built from
// the application config.
package collectors
