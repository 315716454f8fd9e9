package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/exprgraph/pkg/ctxlog"
	"github.com/chazu/exprgraph/pkg/expr"
	"github.com/spf13/cobra"
)

// errCheckFailed is returned by check when the graph has errors; the
// findings themselves are already printed.
var errCheckFailed = errors.New("check failed")

type rootOptions struct {
	logLevel  string
	logFormat string
	format    string
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "exprgraph",
		Short: "Record cost-function programs into expression graphs",
		Long: `exprgraph evaluates a Lisp cost-function program, records every
operation into a linear expression graph and prints or checks the trace.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			logger := ctxlog.New(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVarP(&opts.format, "format", "f", FormatText, "output format (text, json, yaml)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "evaluation timeout (default 5s)")

	rootCmd.AddCommand(newRecordCmd(opts), newCheckCmd(opts))
	return rootCmd
}

func newRecordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record <file>",
		Short: "Evaluate a program and print the recorded graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := evaluateFile(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if err := writeResult(cmd.OutOrStdout(), opts.format, result); err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%s: %s", args[0], result.Errors[0].Message)
			}
			return nil
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Evaluate a program and validate the recorded graph",
		Long: `check evaluates the program and runs structural validation plus the
redundancy and dead-node analyses. It exits non-zero when the program fails
or the graph has structural errors; warnings alone do not fail the check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := evaluateFile(cmd, opts, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.format == FormatText {
				err = writeFindings(w, result)
			} else {
				// Structured output carries the findings and an empty graph.
				result.Graph = expr.Graph{}
				err = writeResult(w, opts.format, result)
			}
			if err != nil {
				return err
			}
			if !result.OK() {
				return errCheckFailed
			}
			return nil
		},
	}
}

// evaluateFile reads path ("-" for stdin) and runs it through an App.
func evaluateFile(cmd *cobra.Command, opts *rootOptions, path string) (EvalResult, error) {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return EvalResult{}, fmt.Errorf("reading program: %w", err)
	}

	logger := ctxlog.FromContext(cmd.Context()).With("file", path)
	logger.Debug("evaluating program", "bytes", len(src))
	return NewApp(logger, opts.timeout).Evaluate(string(src)), nil
}
