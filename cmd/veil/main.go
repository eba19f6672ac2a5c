package main

import (
	"os"

	"github.com/veil-verify/veil/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own error output; the wrapper only
		// selects the process exit code.
		code := cli.GetExitCode(err)
		if code == cli.ExitCommandError {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		os.Exit(code)
	}
}
