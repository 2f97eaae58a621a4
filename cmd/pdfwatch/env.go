package main

import (
	"context"
	"io"
	"os"

	"github.com/alnah/go-pdfwatch"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, process environment, and the renderer.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	HomeDir func() (string, error)

	// Renderer replaces headless Chrome when non-nil.
	Renderer pdfwatch.Renderer

	// NotifyContext derives the context the watch loop runs under.
	NotifyContext func(context.Context) (context.Context, context.CancelFunc)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Environ:       os.Environ,
		HomeDir:       os.UserHomeDir,
		NotifyContext: notifyContext,
	}
}

// homeDir returns the user's home directory, or "" when it cannot be resolved.
func (e *Environment) homeDir() string {
	if e.HomeDir == nil {
		return ""
	}
	home, err := e.HomeDir()
	if err != nil {
		return ""
	}
	return home
}
