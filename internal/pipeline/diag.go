package pipeline

import (
	"fmt"

	"github.com/veil-verify/veil/internal/bundle"
	"github.com/veil-verify/veil/internal/extract"
	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/mono"
	"github.com/veil-verify/veil/internal/resolve"
	"github.com/veil-verify/veil/internal/simplify"
)

// Diagnostic kinds raised by the pipeline itself. Phase packages own
// their per-item kinds (AmbiguousResolution, UnsupportedConstruct, ...).
const (
	KindImport   = "ImportError"
	KindInternal = "InternalInvariantViolation"
)

// Diagnostic is one structured failure report. Per-item recoverable
// failures drop the item and keep the run going; fatal kinds
// (ImportError, InternalInvariantViolation) abort the unit.
type Diagnostic struct {
	Stage  Stage   `json:"stage"`
	Kind   string  `json:"kind"`
	Item   string  `json:"item,omitempty"`
	Detail string  `json:"detail"`
	Span   ir.Span `json:"span,omitempty"`
}

// String renders the diagnostic for logs and CLI text output.
func (d Diagnostic) String() string {
	if d.Item != "" {
		return fmt.Sprintf("%s: %s: %s: %s", d.Stage, d.Kind, d.Item, d.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", d.Stage, d.Kind, d.Detail)
}

// diagnose converts a phase error into a Diagnostic. Unknown error
// types are internal violations: every phase's failure surface is a
// closed set.
func diagnose(stage Stage, err error) Diagnostic {
	switch e := err.(type) {
	case *bundle.ImportError:
		return Diagnostic{Stage: stage, Kind: KindImport, Detail: e.Error()}
	case *resolve.ResolutionError:
		return Diagnostic{Stage: stage, Kind: e.Kind, Item: e.Path.String(), Detail: e.Detail}
	case *simplify.UnsupportedError:
		return Diagnostic{Stage: stage, Kind: simplify.KindUnsupported, Item: e.Path.String(),
			Detail: fmt.Sprintf("unsupported construct: %s", e.Construct), Span: e.Span}
	case *extract.SpecError:
		return Diagnostic{Stage: stage, Kind: e.Kind, Item: e.Path.String(), Detail: e.Detail, Span: e.Span}
	case *mono.MonoError:
		return Diagnostic{Stage: stage, Kind: e.Kind, Item: e.Path.String(), Detail: e.Detail}
	default:
		return Diagnostic{Stage: stage, Kind: KindInternal, Detail: err.Error()}
	}
}
