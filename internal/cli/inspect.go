package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veil-verify/veil/internal/bundle"
	"github.com/veil-verify/veil/internal/pipeline"
)

// ItemSummary is one imported item in inspect output.
type ItemSummary struct {
	Path     string   `json:"path"`
	Kind     string   `json:"kind"`
	Generics []string `json:"generics,omitempty"`
	Refs     int      `json:"refs"`
	Span     string   `json:"span,omitempty"`
}

// NewInspectCommand creates the inspect command: import a bundle and
// print its item table, with no further phases.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inspect <bundle>",
		Short:         "Import a bundle and list its items",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening bundle", err)
	}
	defer f.Close()

	b, err := bundle.Read(f)
	if err != nil {
		if ie, ok := err.(*bundle.ImportError); ok {
			if ferr := formatter.Error(ie.Code, ie.Message, nil); ferr != nil {
				return ferr
			}
			return NewExitError(ExitFailure, "bundle is malformed")
		}
		return WrapExitError(ExitCommandError, "reading bundle", err)
	}

	summaries := make([]ItemSummary, 0, b.Arena.Len())
	for _, it := range b.Arena.Items() {
		s := ItemSummary{
			Path: it.Path.String(),
			Kind: string(it.Kind),
			Refs: len(it.Refs),
		}
		for _, g := range it.Generics {
			s.Generics = append(s.Generics, g.Name)
		}
		if it.Span.IsValid() {
			s.Span = fmt.Sprintf("%s:%d:%d", it.Span.File, it.Span.Line, it.Span.Col)
		}
		summaries = append(summaries, s)
	}

	if rootOpts.Format == "json" {
		return formatter.Success(summaries)
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%-10s %s", s.Kind, s.Path)
		if len(s.Generics) > 0 {
			line += fmt.Sprintf(" <%v>", s.Generics)
		}
		if s.Span != "" {
			line += "  (" + s.Span + ")"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// openUnits opens every bundle path as a pipeline unit. The cleanup
// closes whatever was opened, including on partial failure.
func openUnits(paths []string) ([]pipeline.Unit, func(), error) {
	units := make([]pipeline.Unit, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	cleanup := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		files = append(files, f)
		units = append(units, pipeline.Unit{Name: p, Source: f})
	}
	return units, cleanup, nil
}
