package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/go-jtalk/internal/frontend"
	"github.com/example/go-jtalk/internal/label"
	"github.com/example/go-jtalk/internal/njd"
	"github.com/example/go-jtalk/internal/tts"
	"github.com/spf13/cobra"
)

func newLabelCmd() *cobra.Command {
	var text string
	var format string

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Print full-context labels for Japanese text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "lab" && format != "json" && format != "njd" {
				return fmt.Errorf("--format must be 'lab', 'json' or 'njd'")
			}

			inputText, err := readSynthText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, tts.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			res, err := svc.Analyze(cmd.Context(), inputText)
			if err != nil {
				return err
			}

			return writeLabels(cmd.OutOrStdout(), format, res)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to analyze (if empty, read from stdin)")
	cmd.Flags().StringVar(&format, "format", "lab", "Output format: lab|json|njd")

	return cmd
}

type labelOutput struct {
	Format string   `json:"format"`
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

func writeLabels(w io.Writer, format string, res *frontend.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(labelOutput{Format: label.Format, Text: res.Text, Labels: res.Labels})
	case "njd":
		for _, n := range res.Store.Nodes() {
			if _, err := fmt.Fprintln(w, njdLine(n)); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, l := range res.Labels {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
		return nil
	}
}

// njdLine renders a node as its feature string followed by
// acc/mora, chain rule and chain flag.
func njdLine(n *njd.Node) string {
	return fmt.Sprintf("%s,%d/%d,%s,%s", n.String(), n.Acc, n.MoraSize, n.ChainRule, n.ChainFlag)
}
