// Package batch handles batch extraction from message exports
package batch

import (
	"context"
	"fmt"

	"teketeke/mpesa-sms/cmd/root"
	"teketeke/mpesa-sms/internal/container"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/receiver"
	"teketeke/mpesa-sms/internal/source"

	"github.com/spf13/cobra"
)

var (
	// Input is the message export to read, or "-" for stdin
	Input string
	// Output is where records are written, or "-" for stdout
	Output string
	// Forward posts the extracted records to forward.url as well
	Forward bool
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract transaction records from a message export",
	Long: `Extract transaction records from a CSV or JSON Lines message export.

Every message runs through the same receiver as live traffic: permission and
the enabled flag are honoured, and duplicates are dropped when receiver.dedupe
is on. Records go to a .csv or .json file, or to stdout as JSON.

CSV input needs a body column and optionally sender and timestamp (epoch
milliseconds). A blank or missing timestamp is stamped with the time the message
is read. JSON Lines input uses the same field names.

Example:
  mpesa-sms batch -i inbox.csv -o records.csv
  mpesa-sms batch -i inbox.jsonl --forward`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Input, "input", "i", "", "Message export (.csv, .jsonl, .ndjson or - for stdin)")
	Cmd.Flags().StringVarP(&Output, "output", "o", source.StdioPath, "Output file (.csv, .json or - for stdout)")
	Cmd.Flags().BoolVar(&Forward, "forward", false, "Also post the records to forward.url")
	_ = Cmd.MarkFlagRequired("input")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}
	_, err = Run(cmd.Context(), c, Input, Output, Forward)
	return err
}

// Run extracts every message in input, writes the records to output and
// optionally forwards them. It returns the per-outcome summary.
func Run(ctx context.Context, c *container.Container, input, output string, forward bool) (receiver.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()
	delim := c.GetConfig().Delimiter()

	fwd := c.GetForwarder()
	if forward && fwd == nil {
		return nil, fmt.Errorf("--forward requires forward.url to be configured")
	}

	granted, err := c.GetService().RequestPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("permission request failed: %w", err)
	}
	if !granted {
		return nil, fmt.Errorf("permission to read messages was denied")
	}

	src, err := source.Open(input, delim)
	if err != nil {
		return nil, err
	}
	summary, err := c.GetReceiver().Consume(ctx, src)
	if err != nil {
		return summary, err
	}

	sink, err := source.OpenSink(output, delim, logger)
	if err != nil {
		return summary, err
	}
	records := c.GetService().PullNewMessages().Items
	if err := sink.Write(ctx, records); err != nil {
		c.GetBuffer().Restore(records)
		return summary, err
	}

	if forward {
		if err := fwd.Write(ctx, records); err != nil {
			return summary, fmt.Errorf("failed to forward records: %w", err)
		}
	}

	logger.Info("Batch extraction completed",
		logging.Field{Key: logging.FieldInputFile, Value: input},
		logging.Field{Key: logging.FieldOutputFile, Value: output},
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: "messages", Value: summary.Total()})
	return summary, nil
}
