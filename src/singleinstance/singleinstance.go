package singleinstance

// This file defines the API for single-instance ownership and command delegation.

import (
	"context"
	"errors"
	"strings"
)

var ErrClosed = errors.New("singleinstance: server closed")

// Command is what a second invocation asks the resident to do.
type Command string

const (
	// CommandCapture starts a capture in the resident.
	CommandCapture Command = "CAPTURE"
	// CommandShow raises the resident's editor window.
	CommandShow Command = "SHOW"
)

// ParseCommand maps a request line to a Command.
func ParseCommand(line string) (Command, bool) {
	switch c := Command(strings.ToUpper(strings.TrimSpace(line))); c {
	case CommandCapture, CommandShow:
		return c, true
	default:
		return "", false
	}
}

// Server owns the TCP endpoint and answers delegated commands.
type Server interface {
	// Start begins listening on the first port of the configured range.
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
	Request() Request
	// RespondSuccess sends success with an optional message.
	RespondSuccess(text string) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	Close() error
}

// Request represents a single delegated command.
type Request struct {
	Command Command
}

// Client attempts to delegate a command to a resident server.
type Client interface {
	// Delegate scans the port range, performs the PING handshake and sends cmd.
	// If no resident is found, returns delegated=false, err=nil.
	Delegate(ctx context.Context, cmd Command) (delegated bool, reply string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
