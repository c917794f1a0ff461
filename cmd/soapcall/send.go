package main

import (
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/message"
)

type sendFlags struct {
	Payload string
	Action  string
	Output  string
}

func newSendCmd(c *cli) *cobra.Command {
	var flags sendFlags

	cmd := &cobra.Command{
		Use:   "send [uri]",
		Short: "Send a payload and print the response payload",
		Long: `Send wraps the XML payload in a SOAP envelope, sends it and writes the
response payload. Nothing is written when the service returns no response.
Use "-" as payload to read from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var uri string
			if len(args) == 1 {
				uri = args[0]
			}
			return c.send(cmd, uri, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Payload, "payload", "p", "", "payload XML file, or - for stdin")
	cmd.Flags().StringVarP(&flags.Action, "action", "a", "", "SOAPAction of the request")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write the response payload to a file")

	return cmd
}

func (c *cli) send(cmd *cobra.Command, uri string, flags sendFlags) error {
	ctx := cmd.Context()

	payload, err := readPayload(cmd.InOrStdin(), flags.Payload)
	if err != nil {
		return err
	}

	env, err := newEnvironment(ctx, c.config, c.logger)
	if err != nil {
		return err
	}
	defer env.Close(ctx)

	callbacks := []client.MessageCallback{client.PayloadCallback(payload)}
	if flags.Action != "" {
		callbacks = append(callbacks, client.SOAPActionCallback(flags.Action))
	}

	resp, err := client.SendAndReceiveURI(ctx, env.template, uri, client.Callbacks(callbacks...), client.PayloadExtractor())
	if err != nil {
		return err
	}
	if resp == nil {
		c.logger.Info("no response payload")
		return nil
	}

	out := cmd.OutOrStdout()
	if flags.Output != "" {
		f, err := os.Create(flags.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	doc := etree.NewDocument()
	doc.SetRoot(resp)
	doc.Indent(2)
	_, err = doc.WriteTo(out)
	return err
}

// readPayload returns nil for an empty path, which sends an empty body
func readPayload(stdin io.Reader, path string) (*etree.Element, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	payload, err := message.ParseElement(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return payload, nil
}
