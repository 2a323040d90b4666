// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
	"github.com/mathkitproj/mathsolver-mcp/internal/problemset/parsers"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

type batchReport struct {
	Source  string                `json:"source" yaml:"source"`
	Parser  string                `json:"parser" yaml:"parser"`
	Refs    []string              `json:"refs" yaml:"refs"`
	Results []service.SolveResult `json:"results" yaml:"results"`
	Summary service.BatchSummary  `json:"summary" yaml:"summary"`
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		formatHint  string
		difficulty  string
		withExplain bool
		sequential  bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Solve every problem in a YAML, JSON, Markdown or text file",
		Long: "Solve every problem in a problem set file. Use - to read from stdin.\n" +
			"Sets larger than batch.max_problems are solved in consecutive batches.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q (want json or yaml)", output)
			}
			src, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if formatHint != "" {
				src.Format = formatHint
			}

			ctx := cmd.Context()
			set, err := parsers.Default().Load(ctx, src)
			if err != nil {
				return err
			}
			opts.logger.Info("loaded problem set", "source", set.SourceID, "parser", set.ParserUsed, "problems", len(set.Entries))

			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			reqs := service.SetRequests(set, service.SolveRequest{
				DifficultyLevel:    difficulty,
				IncludeExplanation: withExplain,
			})
			parallel := !sequential
			report := batchReport{Source: set.SourceID, Parser: set.ParserUsed}
			for _, e := range set.Entries {
				report.Refs = append(report.Refs, e.Ref)
			}
			size := opts.cfg.Batch.MaxProblems
			if size <= 0 || size > service.MaxBatchSize {
				size = service.MaxBatchSize
			}
			for start := 0; start < len(reqs); start += size {
				end := min(start+size, len(reqs))
				res, err := svc.Batch(ctx, service.BatchRequest{Problems: reqs[start:end], Parallel: &parallel})
				if err != nil {
					return err
				}
				report.Results = append(report.Results, res.Results...)
				report.Summary.Total += res.Summary.Total
				report.Summary.Successful += res.Summary.Successful
				report.Summary.Failed += res.Summary.Failed
			}

			if err := write(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			if report.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d problems failed", report.Summary.Failed, report.Summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formatHint, "format", "", "problem set format: yaml, json, markdown or text (default: from the file extension)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "default explanation level for entries that do not set one")
	cmd.Flags().BoolVar(&withExplain, "explain", false, "add an explanation to every solved problem")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "solve problems one at a time")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func readSource(stdin io.Reader, path string) (problemset.Source, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return problemset.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return problemset.Source{Content: data, ID: "stdin"}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return problemset.Source{}, fmt.Errorf("read problem set: %w", err)
	}
	return problemset.Source{Content: data, Format: parsers.FormatFromPath(path), ID: path}, nil
}
