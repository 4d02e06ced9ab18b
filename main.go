package main

import (
	"github.com/temirov/gitprompt/cmd/cli"
)

// main prints the prompt line. Failures are swallowed so the shell prompt never breaks.
func main() {
	_ = cli.Execute()
}
