// Package ssh provides the SSH transport used to read password policy
// settings from hypervisor hosts and to publish reports to remote
// drop-off directories.
package ssh

import (
	"context"
	"time"
)

// Transport is the remote-operation surface collectors and the report
// publisher depend on.
type Transport interface {
	// Connect establishes the SSH connection.
	Connect(ctx context.Context) error

	// Disconnect closes the connection and releases all resources.
	Disconnect() error

	// HealthCheck verifies the connection is alive and responsive.
	HealthCheck(ctx context.Context) error

	// ExecuteCommand runs a command on the remote host and returns its
	// stdout and stderr.
	ExecuteCommand(ctx context.Context, cmd string) (stdout string, stderr string, err error)

	// UploadFile copies a local file to the remote host via SFTP,
	// creating parent directories as needed.
	UploadFile(ctx context.Context, localPath, remotePath string, mode uint32) error
}

// ConnectionInfo describes an active connection.
type ConnectionInfo struct {
	Host         string
	Port         int
	User         string
	ConnectedAt  time.Time
	LastActivity time.Time
}

// TransportError is an error from the transport layer.
type TransportError struct {
	// Op is the operation that failed (connect, execute, upload).
	Op string

	// Err is the underlying error.
	Err error

	// IsTemporary indicates the error may clear on retry.
	IsTemporary bool

	// IsAuthError indicates an authentication failure.
	IsAuthError bool
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Temporary() bool {
	return e.IsTemporary
}
