// Package main provides the filesock server entrypoint.
//
// Usage:
//
//	filesock [options] <socket-path> <file-path>
//	filesock send <socket-path> ping|clear|write <text>
//	filesock version
//
// Exit codes:
//   - 0: clean shutdown
//   - 1: startup or runtime failure
//   - 2: usage error (wrong argument count)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/filesock/cli/cmd"
	"github.com/pithecene-io/filesock/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "filesock",
		Usage:          "Append to or clear a file through a Unix domain socket",
		ArgsUsage:      cmd.ServeUsage,
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:          cmd.ServeFlags(),
		Action:         cmd.ServeAction,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.SendCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for every non-nil error.
		os.Exit(1)
	}
}

// exitErrHandler prints the error, if any, and exits with its code.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps err to a process exit code and the message to print.
// cli.Exit("", N) prints nothing; other errors exit 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
