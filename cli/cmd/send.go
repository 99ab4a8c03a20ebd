package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/filesock/cli/render"
	"github.com/pithecene-io/filesock/client"
	"github.com/pithecene-io/filesock/types"
)

// DefaultSendTimeout bounds a single send round trip.
const DefaultSendTimeout = 10 * time.Second

// SendResponse is the rendered result of the send command.
type SendResponse struct {
	Request string `json:"request"`
	Reply   string `json:"reply"`
	Content string `json:"content,omitempty"`
}

// SendCommand returns the send command.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one request to a running server and print the reply",
		ArgsUsage: "<socket-path> ping|clear|write <text>|ok|error <text>",
		Flags: append(OutputFlags(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Round-trip timeout",
				Value: DefaultSendTimeout,
			},
		),
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	if c.NArg() < 2 {
		_ = cli.ShowSubcommandHelp(c)
		return cli.Exit("", exitUsage)
	}

	req, err := parseRequest(c.Args().Get(1), c.Args().Slice()[2:])
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	if timeout := c.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reply, err := client.Send(ctx, c.Args().Get(0), req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("send failed: %v", err), exitError)
	}

	if err := r.Render(newSendResponse(req, reply)); err != nil {
		return err
	}
	if reply.Type() == types.MessageTypeError {
		return cli.Exit("", exitError)
	}
	return nil
}

// parseRequest builds a request from a verb and its remaining arguments.
// Text arguments are joined with single spaces.
func parseRequest(verb string, rest []string) (types.Message, error) {
	text := strings.Join(rest, " ")
	switch strings.ToLower(verb) {
	case "ping":
		return types.Ping(), nil
	case "clear":
		return types.Clear(), nil
	case "write":
		return types.Write(text), nil
	case "ok":
		return types.Ok(), nil
	case "error":
		return types.Error(text), nil
	default:
		return types.None, fmt.Errorf("unknown request %q (must be ping, clear, write, ok, or error)", verb)
	}
}

func newSendResponse(req, reply types.Message) SendResponse {
	return SendResponse{
		Request: req.Type().String(),
		Reply:   reply.Type().String(),
		Content: reply.Content(),
	}
}
