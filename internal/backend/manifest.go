package backend

import (
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/order"
)

// Manifest is the audit record attached to every dispatch: which items
// were emitted (with their content digests), how they were grouped, and
// which items were excluded or dropped, with reasons.
type Manifest struct {
	Run    string
	Unit   string
	Schema int
	Engine string

	Groups  []ManifestGroup
	Items   []ManifestItem
	Skipped []SkippedItem
}

// ManifestGroup mirrors one emission group by member path.
type ManifestGroup struct {
	Members   []string
	Recursive bool
}

// ManifestItem records one emitted item and its cross-run identity.
type ManifestItem struct {
	Path       string
	Kind       string
	Visibility string
	Digest     string
}

// SkippedItem records one item absent from the output: excluded by
// marker or configuration, failed by a per-item recoverable error, or
// already rendered by the backend on a previous run (reason "Cached").
type SkippedItem struct {
	Path   string
	Reason string
	Detail string
}

// BuildManifest assembles the manifest for an ordered run. Skipped
// entries come from the pipeline's diagnostics and pass through in the
// order they were raised.
func BuildManifest(run, unit string, arena *ir.Arena, groups []order.Group, skipped []SkippedItem) (*Manifest, error) {
	m := &Manifest{
		Run:     run,
		Unit:    unit,
		Schema:  ir.SchemaVersion,
		Engine:  ir.EngineVersion,
		Skipped: skipped,
	}
	for _, g := range groups {
		mg := ManifestGroup{Recursive: g.Recursive}
		for _, id := range g.Members {
			it := arena.Get(id)
			mg.Members = append(mg.Members, it.Path.String())
			digest, err := ir.ItemDigest(arena, it)
			if err != nil {
				return nil, fmt.Errorf("manifest: %w", err)
			}
			m.Items = append(m.Items, ManifestItem{
				Path:       it.Path.String(),
				Kind:       string(it.Kind),
				Visibility: string(it.Visibility),
				Digest:     digest,
			})
		}
		m.Groups = append(m.Groups, mg)
	}
	return m, nil
}

// Canonical renders the manifest as canonical JSON, the form its digest
// and golden fixtures are computed over. The run token is deliberately
// outside the canonical form so two runs over identical input hash
// identically.
func (m *Manifest) Canonical() ([]byte, error) {
	groups := make([]any, len(m.Groups))
	for i, g := range m.Groups {
		groups[i] = map[string]any{
			"members":   g.Members,
			"recursive": g.Recursive,
		}
	}
	items := make([]any, len(m.Items))
	for i, it := range m.Items {
		items[i] = map[string]any{
			"path":       it.Path,
			"kind":       it.Kind,
			"visibility": it.Visibility,
			"digest":     it.Digest,
		}
	}
	skipped := make([]any, len(m.Skipped))
	for i, s := range m.Skipped {
		skipped[i] = map[string]any{
			"path":   s.Path,
			"reason": s.Reason,
			"detail": s.Detail,
		}
	}
	return ir.MarshalCanonical(map[string]any{
		"schema":  m.Schema,
		"engine":  m.Engine,
		"unit":    m.Unit,
		"groups":  groups,
		"items":   items,
		"skipped": skipped,
	})
}

// Digest returns the manifest's content digest.
func (m *Manifest) Digest() (string, error) {
	canonical, err := m.Canonical()
	if err != nil {
		return "", err
	}
	return ir.ManifestDigest(canonical), nil
}
