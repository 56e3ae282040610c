package singleinstance

// This file defines the API for single-instance ownership and action delegation.

import (
	"context"

	"quick-translate/src/messages"
)

// Server owns the TCP endpoint and answers delegated action requests.
type Server interface {
	// Start begins listening on the first port of the configured range and accepting client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess sends the action result text.
	RespondSuccess(text string) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request is one delegated action. An empty Text asks the resident to use
// its current selection.
type Request struct {
	Kind messages.ActionKind
	Text string
}

// Client delegates an action to a resident server.
type Client interface {
	// Delegate scans the port range and hands the request to the resident.
	// If no resident is found, returns delegated=false, err=nil.
	Delegate(ctx context.Context, req Request) (delegated bool, text string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
