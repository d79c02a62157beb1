package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/adminctl/internal/core/domain"
)

// maxResponseBody bounds what call reads and prints.
const maxResponseBody = 8 << 20

// CallCommand returns the call command.
func CallCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Send an authenticated request to the administrative API",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Request body",
			},
			&cli.StringFlag{
				Name:    "data-file",
				Aliases: []string{"f"},
				Usage:   "Read the request body from a file (- for stdin)",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the response body unformatted",
			},
		},
		Action: call,
	}
}

func call(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: call METHOD PATH")
	}
	method := strings.ToUpper(c.Args().Get(0))
	path := c.Args().Get(1)

	body, err := requestBody(c)
	if err != nil {
		return err
	}

	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	var payload any
	if body != nil {
		payload = body
	}
	resp, err := rt.Client.Send(c.Context, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.ErrTransport.WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &errResp)
		return domain.StatusError(resp.StatusCode, errResp.Message)
	}

	return printBody(c, data)
}

// requestBody returns the body from --data or --data-file. JSON bodies
// are passed through as json.RawMessage, anything else as bytes.
func requestBody(c *cli.Context) ([]byte, error) {
	data := c.String("data")
	file := c.String("data-file")
	if data != "" && file != "" {
		return nil, errors.New("--data and --data-file are mutually exclusive")
	}

	switch {
	case data != "":
		return []byte(data), nil
	case file == "-":
		return io.ReadAll(c.App.Reader)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

func printBody(c *cli.Context, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var v any
	if c.Bool("raw") || json.Unmarshal(data, &v) != nil {
		_, err := c.App.Writer.Write(data)
		if err == nil && !bytes.HasSuffix(data, []byte("\n")) {
			_, err = io.WriteString(c.App.Writer, "\n")
		}
		return err
	}

	f, err := formatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, v)
}
