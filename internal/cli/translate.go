package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veil-verify/veil/internal/backend"
	"github.com/veil-verify/veil/internal/config"
	"github.com/veil-verify/veil/internal/pipeline"
	"github.com/veil-verify/veil/internal/store"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Backend string
	Output  string
	Cache   string
}

// UnitReport is the per-unit summary included in command output.
type UnitReport struct {
	Unit        string                `json:"unit"`
	Run         string                `json:"run"`
	Stage       string                `json:"stage"`
	Groups      int                   `json:"groups"`
	Items       int                   `json:"items"`
	Skipped     int                   `json:"skipped"`
	Diagnostics []pipeline.Diagnostic `json:"diagnostics,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <bundle>...",
		Short: "Translate AST bundles to canonical verification IR",
		Long: `Translate one or more attributed AST bundles through the full
pipeline and dispatch the ordered IR to the selected backend.

Each bundle is an independent compilation unit; units run in parallel.
Per-item failures drop the item and are reported; a malformed bundle
aborts its unit only.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "", "backend to dispatch to (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (backend dependent)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "translation cache database path")

	return cmd
}

func runTranslate(opts *TranslateOptions, bundles []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Cache != "" {
		cfg.CachePath = opts.Cache
	}

	beOpts := cfg.BackendOptions
	if opts.Output != "" {
		if beOpts == nil {
			beOpts = map[string]any{}
		}
		beOpts["path"] = opts.Output
	}
	be, err := backend.New(cfg.Backend, beOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "constructing backend", err)
	}

	translator := pipeline.NewTranslator(cfg, be)
	if cfg.CachePath != "" {
		st, err := store.Open(cfg.CachePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening cache", err)
		}
		defer st.Close()
		translator.Store = st
	}

	units, cleanup, err := openUnits(bundles)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening bundle", err)
	}
	defer cleanup()

	results := translator.TranslateAll(cmd.Context(), units)

	reports := make([]UnitReport, len(results))
	anyDiag, anyFatal := false, false
	for i, res := range results {
		reports[i] = report(res)
		if len(res.Diagnostics) > 0 {
			anyDiag = true
		}
		if res.Failed() {
			anyFatal = true
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return err
		}
	} else {
		printReports(formatter, reports)
	}

	if anyFatal || anyDiag {
		return NewExitError(ExitFailure, "translation completed with failures")
	}
	return nil
}

func report(res *pipeline.Result) UnitReport {
	r := UnitReport{
		Unit:        res.Unit,
		Run:         res.Run,
		Stage:       string(res.Stage),
		Diagnostics: res.Diagnostics,
	}
	if res.Output != nil {
		r.Groups = len(res.Output.Groups)
		r.Items = len(res.Output.Manifest.Items)
		r.Skipped = len(res.Output.Manifest.Skipped)
	}
	return r
}

func printReports(f *OutputFormatter, reports []UnitReport) {
	for _, r := range reports {
		fmt.Fprintf(f.Writer, "%s: stage=%s run=%s groups=%d items=%d skipped=%d\n",
			r.Unit, r.Stage, r.Run, r.Groups, r.Items, r.Skipped)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(f.Writer, "  %s\n", d.String())
		}
	}
}

// loadConfig reads the --config file or falls back to defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}
