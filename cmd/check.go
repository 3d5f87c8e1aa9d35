package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zvilnymo/casecheck/internal/report"
)

var (
	checkOutput string
	checkXLSX   string
)

var checkCmd = &cobra.Command{
	Use:   "check <phone>",
	Short: "Look up one customer by phone and print the report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "check")
		if err != nil {
			return err
		}

		r, err := env.Builder.Build(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if err := writeReport(cmd.OutOrStdout(), r, checkOutput, env.Location); err != nil {
			return err
		}

		if checkXLSX != "" && len(r.History) > 0 {
			if err := report.WriteXLSX(r, env.Location, checkXLSX); err != nil {
				return err
			}
			zap.L().Info("stage history exported", zap.String("path", checkXLSX))
		}
		return nil
	},
}

// writeReport prints r as text, json or yaml.
func writeReport(w io.Writer, r *report.Report, format string, loc *time.Location) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintln(w, report.NewTextRenderer(loc).Render(r))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "output format: text, json or yaml")
	checkCmd.Flags().StringVar(&checkXLSX, "xlsx", "", "also export the stage history to this .xlsx file")
	rootCmd.AddCommand(checkCmd)
}
