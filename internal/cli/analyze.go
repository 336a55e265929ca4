package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/errors"
)

// analyzeCommand creates the analyze command: run one catalogue operation
// against a UVL model and print the result as JSON.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		operation string
		feature   string
		selection string
		criteria  string
		count     int
		noCache   bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze <model.uvl>",
		Short: "Run an analysis operation against a UVL model",
		Long: `Analyze runs one operation from the analysis catalogue against a UVL
feature model and prints the result as JSON. Pass "-" to read the model
from stdin.

List the available operations with: uvlkit analyze --operations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if operations, _ := cmd.Flags().GetBool("operations"); operations {
				for _, op := range catalog.Operations() {
					fmt.Fprintln(cmd.OutOrStdout(), op)
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected a model file argument (or - for stdin)")
			}

			text, err := readModel(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}

			req := catalog.Request{
				Operation: catalog.Operation(operation),
				ModelText: text,
				Feature:   feature,
				Count:     count,
			}
			if selection != "" {
				req.Selection = splitSelection(selection)
			}
			if criteria != "" {
				if req.Criteria, err = catalog.ParseCriteria(criteria); err != nil {
					return err
				}
			}

			runner := c.newRunner(noCache)
			runner.Timeout = timeout

			track := newProgress(c.Logger)
			sp := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("running %s", operation))
			sp.Start()
			result, err := runner.Run(cmd.Context(), req)
			sp.Stop()
			if err != nil {
				if errors.Is(err, errors.ErrCodeUnknownOperation) {
					return fmt.Errorf("%s\nvalid operations:\n  %s",
						errors.UserMessage(err), joinOperations())
				}
				return err
			}
			track.done(fmt.Sprintf("%s finished", operation))

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&operation, "operation", "p", string(catalog.OpSatisfiability), "operation to run")
	cmd.Flags().StringVarP(&feature, "feature", "f", "", "feature name (feature_ancestors, commonality)")
	cmd.Flags().StringVarP(&selection, "selection", "s", "", "comma-separated selected features (satisfiable_configuration)")
	cmd.Flags().StringVar(&criteria, "criteria", "", `filter criteria, e.g. "A,!B" (filter)`)
	cmd.Flags().IntVarP(&count, "count", "n", 0, "sample size (sampling)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "solving deadline (0 disables)")
	cmd.Flags().Bool("operations", false, "list available operations and exit")

	return cmd
}

func joinOperations() string {
	ops := catalog.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, "\n  ")
}
