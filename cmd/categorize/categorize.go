// Package categorize handles spending category lookups
package categorize

import (
	"fmt"

	"teketeke/mpesa-sms/cmd/root"
	"teketeke/mpesa-sms/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Text is the message or counterparty text to categorize
	Text string
	// WriteRules is a path the active rules are exported to
	WriteRules string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize message text using the configured keyword rules",
	Long: `Categorize message text using the configured keyword rules.

Rules are read from parser.categories_file, or categories.yaml in the usual
locations, and fall back to the built-in Fuel, Parking and Maintenance rules.
Use --write-rules to export the active rules as a starting point for your own file.

Example:
  mpesa-sms categorize -b "Ksh500 paid to CITY PARKING. M-PESA"
  mpesa-sms categorize --write-rules config/categories.yaml`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Text, "body", "b", "", "Text to categorize")
	Cmd.Flags().StringVar(&WriteRules, "write-rules", "", "Export the active rules to this YAML file")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	if WriteRules != "" {
		if err := c.GetStore().SaveCategories(WriteRules, c.GetCategorizer().Config()); err != nil {
			return err
		}
		root.Log.Info("Category rules written", logging.Field{Key: logging.FieldOutputFile, Value: WriteRules})
		if Text == "" {
			return nil
		}
	}
	if Text == "" {
		return fmt.Errorf("--body is required")
	}

	category := c.GetCategorizer().Categorize(Text)
	root.Log.Debug("Categorize command called", logging.Field{Key: logging.FieldCategory, Value: category})
	_, err = fmt.Fprintln(cmd.OutOrStdout(), category)
	return err
}
