// Package parse handles single-message extraction
package parse

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"teketeke/mpesa-sms/cmd/root"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"

	"github.com/spf13/cobra"
)

var (
	// Body is the message text to extract
	Body string
	// Timestamp is the receipt time in epoch milliseconds
	Timestamp int64
	// Sender is the originating address, used for logging only
	Sender string
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract a transaction record from one M-PESA message",
	Long: `Extract a transaction record from one M-PESA message and print it as JSON.

Messages that are not M-PESA confirmations, or whose amount is missing or zero,
print {"match": false}.

Example:
  mpesa-sms parse -b "QAB1CD2EF3 Confirmed. Ksh1,250.00 paid to SHELL WESTLANDS. M-PESA" -t 1709288130250`,
	RunE: parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Body, "body", "b", "", "Message body")
	Cmd.Flags().Int64VarP(&Timestamp, "timestamp", "t", 0, "Receipt time in epoch milliseconds (default: now)")
	Cmd.Flags().StringVarP(&Sender, "sender", "s", "", "Sender address")
	_ = Cmd.MarkFlagRequired("body")
}

func parseFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	ts := Timestamp
	if !cmd.Flags().Changed("timestamp") {
		ts = time.Now().UnixMilli()
	}

	record, ok := c.GetParser().Extract(Body, ts)
	root.Log.Debug("Parse command called",
		logging.Field{Key: logging.FieldSender, Value: Sender},
		logging.Field{Key: "match", Value: ok})
	return writeResult(cmd.OutOrStdout(), record, ok)
}

func writeResult(w io.Writer, record *models.TransactionRecord, ok bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	var v interface{} = map[string]bool{"match": false}
	if ok {
		v = record
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
