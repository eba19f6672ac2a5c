package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veil-verify/veil/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Cache string
	Limit int
}

// NewRunsCommand creates the runs command: list recorded translation
// runs from the cache database.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded translation runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cache, "cache", "", "translation cache database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	cmd.MarkFlagRequired("cache")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Cache)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening cache", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  unit=%s backend=%s manifest=%s\n",
			r.CreatedAt, r.ID, r.Unit, r.Backend, shortDigest(r.ManifestDigest))
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
