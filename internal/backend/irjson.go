package backend

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/veil-verify/veil/internal/ir"
)

func init() {
	Register("ir-json", func(opts map[string]any) (Backend, error) {
		b := &IRJSON{}
		if p, ok := opts["path"]; ok {
			s, isStr := p.(string)
			if !isStr {
				return nil, fmt.Errorf("ir-json: path option must be a string, got %T", p)
			}
			b.Path = s
		}
		return b, nil
	})
}

// IRJSON is the reference backend: it renders the full translated unit
// as one canonical JSON document. Every other backend's input is
// exactly what this one prints, which makes it the golden-test anchor
// and the default for piping into external generators.
type IRJSON struct {
	// Path is the output file; empty means stdout.
	Path string
	// W overrides Path when set. Tests inject a buffer here.
	W io.Writer
}

// Name implements Backend.
func (b *IRJSON) Name() string { return "ir-json" }

// Emit implements Backend. The output resource is acquired, fully
// written, and released inside this call.
func (b *IRJSON) Emit(ctx context.Context, out *Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := b.W
	if w == nil {
		if b.Path == "" {
			w = os.Stdout
		} else {
			f, err := os.Create(b.Path)
			if err != nil {
				return fmt.Errorf("ir-json: %w", err)
			}
			defer f.Close()
			w = f
		}
	}

	doc, err := b.document(out)
	if err != nil {
		return err
	}
	canonical, err := ir.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("ir-json: %w", err)
	}
	if _, err := w.Write(canonical); err != nil {
		return fmt.Errorf("ir-json: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// document builds the canonical-JSON-compatible rendering of one run.
// Expression bodies render as fingerprint keys with arena handles
// resolved to paths, so the document is stable across runs.
func (b *IRJSON) document(out *Output) (map[string]any, error) {
	manifest, err := out.Manifest.Canonical()
	if err != nil {
		return nil, fmt.Errorf("ir-json: %w", err)
	}

	groups := make([]any, len(out.Groups))
	for gi, g := range out.Groups {
		members := make([]any, len(g.Members))
		for mi, id := range g.Members {
			members[mi] = b.renderItem(out.Arena, out.Arena.Get(id))
		}
		groups[gi] = map[string]any{
			"members":   members,
			"recursive": g.Recursive,
		}
	}

	return map[string]any{
		"run":      out.Run,
		"unit":     out.Unit,
		"schema":   ir.SchemaVersion,
		"groups":   groups,
		"manifest": string(manifest),
	}, nil
}

func (b *IRJSON) renderItem(a *ir.Arena, it *ir.Item) map[string]any {
	obj := map[string]any{
		"path":       it.Path.String(),
		"kind":       string(it.Kind),
		"visibility": string(it.Visibility),
	}
	if len(it.Params) > 0 {
		params := make([]string, len(it.Params))
		for i, p := range it.Params {
			params[i] = p.Name + ":" + ir.TypeKey(p.Type)
		}
		obj["params"] = params
	}
	if it.Result != nil {
		obj["result"] = ir.TypeKey(it.Result)
	}
	if it.Underlying != nil {
		obj["underlying"] = ir.TypeKey(it.Underlying)
	}
	// Opaque bodies stay hidden; the contract is the trusted surface.
	if it.Body != nil && it.Visibility != ir.VisOpaque {
		obj["body"] = ir.ResolveHandles(a, ir.ExprKey(it.Body))
	}
	if it.ConstValue != nil {
		obj["const"] = ir.ResolveHandles(a, ir.ExprKey(it.ConstValue))
	}
	if c := it.Contract; !c.IsEmpty() {
		contract := map[string]any{}
		if len(c.Preconditions) > 0 {
			pre := make([]string, len(c.Preconditions))
			for i, p := range c.Preconditions {
				pre[i] = ir.ResolveHandles(a, ir.ExprKey(p))
			}
			contract["requires"] = pre
		}
		if len(c.Postconditions) > 0 {
			post := make([]any, len(c.Postconditions))
			for i, q := range c.Postconditions {
				post[i] = map[string]any{
					"result": q.Result,
					"pred":   ir.ResolveHandles(a, ir.ExprKey(q.Pred)),
				}
			}
			contract["ensures"] = post
		}
		if c.Decreases != nil {
			contract["decreases"] = ir.ResolveHandles(a, ir.ExprKey(c.Decreases))
		}
		obj["contract"] = contract
	}
	if r := it.Refinement; r != nil {
		obj["refinement"] = map[string]any{
			"base":   ir.TypeKey(r.Base),
			"binder": r.Binder,
			"pred":   ir.ResolveHandles(a, ir.ExprKey(r.Pred)),
		}
	}
	return obj
}
