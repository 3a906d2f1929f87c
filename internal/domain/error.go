package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrAgentNotRegistered  = errors.New("agent not registered")
	ErrAgentModeChat       = errors.New("chat is configured for agent mode")
	ErrTerminalJob         = errors.New("job already in a terminal state")
)
