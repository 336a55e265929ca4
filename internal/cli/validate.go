package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

// validateCommand creates the validate command: parse a UVL model and
// report whether it is well-formed.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model.uvl>",
		Short: "Check that a UVL model parses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readModel(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}

			m, err := uvl.Parse(text)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			printSuccess("model is well-formed")
			printDetail("features: %d", m.Len())
			printDetail("constraints: %d", len(m.Constraints))
			return nil
		},
	}
}
