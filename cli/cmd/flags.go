// Package cmd provides CLI commands for the filesock binary.
package cmd

import "github.com/urfave/cli/v2"

// Output flags shared by commands that render a response.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}
)

// Server flags. Each one overrides the matching config file value when set.
var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file",
		EnvVars: []string{"FILESOCK_CONFIG"},
	}

	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
		Value: "info",
	}

	SerializeWritesFlag = &cli.BoolFlag{
		Name:  "serialize-writes",
		Usage: "Serialize concurrent mutations of the target file",
	}

	MaxContentBytesFlag = &cli.IntFlag{
		Name:  "max-content-bytes",
		Usage: "Reject requests with larger content (0 = default 16MiB, negative = no limit)",
	}

	IOTimeoutFlag = &cli.DurationFlag{
		Name:  "io-timeout",
		Usage: "Per-connection read/write deadline (0 = none)",
	}
)

// OutputFlags returns the flags for commands that render output.
func OutputFlags() []cli.Flag {
	return []cli.Flag{FormatFlag}
}

// ServeFlags returns the flags accepted by the serve action.
func ServeFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		LogLevelFlag,
		SerializeWritesFlag,
		MaxContentBytesFlag,
		IOTimeoutFlag,
	}
}
