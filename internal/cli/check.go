package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veil-verify/veil/internal/backend"
	"github.com/veil-verify/veil/internal/pipeline"
)

// NewCheckCommand creates the check command: the full pipeline with the
// output discarded. Useful in CI to catch resolution, desugaring, and
// specification errors without producing artifacts.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <bundle>...",
		Short: "Run the pipeline without emitting output",
		Long: `Check runs every translation phase and reports diagnostics, but
dispatches to a discarding backend. Exit code 0 means every item of
every bundle translated cleanly.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(rootOpts *RootOptions, bundles []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	translator := pipeline.NewTranslator(cfg, discardBackend{})

	units, cleanup, err := openUnits(bundles)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening bundle", err)
	}
	defer cleanup()

	results := translator.TranslateAll(cmd.Context(), units)

	clean := true
	reports := make([]UnitReport, len(results))
	for i, res := range results {
		reports[i] = report(res)
		if len(res.Diagnostics) > 0 || res.Failed() {
			clean = false
		}
	}

	if rootOpts.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return err
		}
	} else {
		printReports(formatter, reports)
		if clean {
			fmt.Fprintln(formatter.Writer, "ok")
		}
	}

	if !clean {
		return NewExitError(ExitFailure, "check found problems")
	}
	return nil
}

// discardBackend validates dispatch without rendering anything.
type discardBackend struct{}

func (discardBackend) Name() string { return "discard" }

func (discardBackend) Emit(ctx context.Context, out *backend.Output) error {
	return ctx.Err()
}
