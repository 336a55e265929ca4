package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/pkg/render"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

// renderCommand creates the render command: draw a feature model as a
// Graphviz diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output      string
		format      string
		constraints bool
	)

	cmd := &cobra.Command{
		Use:   "render <model.uvl>",
		Short: "Render a feature model as a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readModel(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}
			m, err := uvl.Parse(text)
			if err != nil {
				return err
			}

			dot := render.ToDOT(m, render.Options{Constraints: constraints})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				track := newProgress(c.Logger)
				data, err = render.ToSVG(cmd.Context(), dot)
				if err != nil {
					return fmt.Errorf("rendering svg: %w", err)
				}
				track.done("rendered diagram")
			default:
				return fmt.Errorf("unknown format %q (want dot or svg)", format)
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], ".uvl") + "." + format
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			printSuccess("rendered %s", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (- for stdout)")
	cmd.Flags().StringVar(&format, "format", "svg", "output format: dot or svg")
	cmd.Flags().BoolVar(&constraints, "constraints", true, "include cross-tree constraints as a caption")

	return cmd
}
