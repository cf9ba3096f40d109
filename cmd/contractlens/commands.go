package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"contractlens/internal/domain"
	"contractlens/internal/export"
	"contractlens/internal/service"
)

// exitError signals a non-zero exit whose message was already written.
type exitError struct {
	err error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// serviceFactory builds the contract service. The returned func releases
// resources and is called once the command finishes.
type serviceFactory func(ctx context.Context, verbose bool) (service.ContractService, func(), error)

type commandOptions struct {
	url     string
	format  string
	verbose bool
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	opts := &commandOptions{}

	root := &cobra.Command{
		Use:           "contractlens",
		Short:         "Find risky clauses in contracts and rewrite them in plain language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", "", "fetch the contract from a web page instead of a file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug diagnostics to stderr")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Report risky clauses with a 1-10 risk score",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, factory, opts, domain.ModeAnalyze, args)
		},
	}
	analyzeCmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json, csv or xlsx")

	humanizeCmd := &cobra.Command{
		Use:   "humanize [file|-]",
		Short: "Rewrite a contract in plain language with key points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, factory, opts, domain.ModeHumanize, args)
		},
	}

	root.AddCommand(analyzeCmd, humanizeCmd, newMigrateCmd(openMigrator))
	return root
}

func runMode(cmd *cobra.Command, factory serviceFactory, opts *commandOptions, mode domain.Mode, args []string) error {
	out := cmd.OutOrStdout()

	format := strings.ToLower(opts.format)
	if mode == domain.ModeHumanize {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		return fmt.Errorf("unknown format %q: use json, csv or xlsx", opts.format)
	}

	input, err := readInput(cmd.InOrStdin(), opts.url, args)
	if err != nil {
		return failWith(out, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, release, err := factory(ctx, opts.verbose)
	if err != nil {
		return err
	}
	defer release()

	if mode == domain.ModeHumanize {
		res, err := svc.Humanize(ctx, input)
		return finish(out, res, res != nil && res.Error != "", err)
	}

	res, err := svc.Analyze(ctx, input)
	if err == nil && format != "json" {
		write := export.WriteCSV
		if format == "xlsx" {
			write = export.WriteXLSX
		}
		return write(out, res.Analysis)
	}
	return finish(out, res, res != nil && res.Error != "", err)
}

// finish prints the result JSON. A result that carries an error, or a
// failure with no result at all, exits non-zero.
func finish(out io.Writer, result interface{}, failed bool, err error) error {
	if err != nil && !failed {
		return failWith(out, err)
	}
	if werr := writeJSON(out, result); werr != nil {
		return werr
	}
	if failed {
		return &exitError{err: err}
	}
	return nil
}

func failWith(out io.Writer, err error) error {
	if werr := writeJSON(out, map[string]string{"error": err.Error()}); werr != nil {
		return werr
	}
	return &exitError{err: err}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput resolves the contract source. A file argument wins over --url;
// "-" or no argument reads stdin, which may hold raw text or {"text": "..."}.
func readInput(stdin io.Reader, url string, args []string) (service.ContractInput, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return service.ContractInput{}, fmt.Errorf("reading %s: %w", args[0], err)
		}
		return service.ContractInput{File: data, Filename: filepath.Base(args[0])}, nil
	}
	if url != "" {
		return service.ContractInput{URL: url}, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return service.ContractInput{}, fmt.Errorf("reading stdin: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var req struct {
			Text string `json:"text"`
			URL  string `json:"url"`
		}
		if json.Unmarshal(trimmed, &req) == nil && (req.Text != "" || req.URL != "") {
			return service.ContractInput{Text: req.Text, URL: req.URL}, nil
		}
	}
	return service.ContractInput{Text: string(data)}, nil
}
