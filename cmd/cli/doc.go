// Package cli constructs the gitprompt command-line interface, wiring the
// Cobra root command, the embedded configuration loader, and structured
// logging around the prompt service.
package cli
