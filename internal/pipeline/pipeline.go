// Package pipeline drives one compilation unit through the translation
// phases: Imported → Resolved → Desugared → SpecExtracted → Elaborated
// → Ordered → Emitted.
//
// Each unit runs its pipeline single-threaded: trait resolution
// tie-breaking, monomorphization order, and cycle reporting are
// order-sensitive and must be bit-for-bit reproducible. Independent
// units run as parallel workers, each owning a private item arena.
// Blocking happens only at the importer's read and the backend's write;
// no phase suspends mid-computation.
//
// Per-item recoverable failures become diagnostics and drop the item;
// the run continues. ImportError and InternalInvariantViolation are
// fatal and abort the unit at its current stage.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/veil-verify/veil/internal/backend"
	"github.com/veil-verify/veil/internal/bundle"
	"github.com/veil-verify/veil/internal/config"
	"github.com/veil-verify/veil/internal/extract"
	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/mono"
	"github.com/veil-verify/veil/internal/order"
	"github.com/veil-verify/veil/internal/resolve"
	"github.com/veil-verify/veil/internal/simplify"
	"github.com/veil-verify/veil/internal/store"
)

// KindEmit marks a backend output-write failure. Fatal for the unit:
// partial output must not look like success.
const KindEmit = "EmitError"

// Translator runs compilation units against one backend.
type Translator struct {
	Config  *config.Config
	Backend backend.Backend
	// Store is the optional translation cache and audit log.
	Store  *store.Store
	Tokens RunTokenGenerator
	Log    *slog.Logger
}

// NewTranslator wires a Translator with production defaults.
func NewTranslator(cfg *config.Config, be backend.Backend) *Translator {
	return &Translator{
		Config:  cfg,
		Backend: be,
		Tokens:  UUIDv7Generator{},
		Log:     slog.Default(),
	}
}

// Result is the outcome of one unit's run.
type Result struct {
	Unit string
	Run  string
	// Stage is the last stage the unit completed.
	Stage       Stage
	Diagnostics []Diagnostic
	// Fatal is set when the unit aborted; Output is nil in that case.
	Fatal  *Diagnostic
	Output *backend.Output
}

// Failed reports whether the unit aborted before emission.
func (r *Result) Failed() bool { return r.Fatal != nil }

// Unit is one pipeline input: a named bundle stream.
type Unit struct {
	Name   string
	Source io.Reader
}

// Translate runs one unit end to end. Panics anywhere in the phases are
// internal invariant violations: translated to a fatal diagnostic, never
// propagated, because a broken invariant in one unit must not take down
// sibling workers.
func (t *Translator) Translate(ctx context.Context, unit Unit) (res *Result) {
	run := t.Tokens.Generate()
	log := t.Log.With("unit", unit.Name, "run", run)
	res = &Result{Unit: unit.Name, Run: run}

	defer func() {
		if p := recover(); p != nil {
			d := Diagnostic{Stage: res.Stage, Kind: KindInternal, Detail: fmt.Sprint(p)}
			res.Diagnostics = append(res.Diagnostics, d)
			res.Fatal = &d
			res.Output = nil
			log.Error("internal invariant violation", "stage", res.Stage, "panic", p)
		}
	}()

	log.Info("translation starting")

	// Imported.
	b, err := bundle.Read(unit.Source)
	if err != nil {
		d := diagnose(StageImported, err)
		res.Diagnostics = append(res.Diagnostics, d)
		res.Fatal = &d
		log.Error("import failed", "error", err)
		return res
	}
	res.Stage = StageImported
	log.Debug("bundle imported", "items", b.Arena.Len())

	t.runPhases(ctx, res, b.Arena, log)
	return res
}

// TranslateArena runs the post-import phases over an already-built item
// arena. Embedders and the test harness use this to skip the wire
// format; Translate goes through it after import. The arena is mutated
// in place.
func (t *Translator) TranslateArena(ctx context.Context, unit string, arena *ir.Arena) (res *Result) {
	run := t.Tokens.Generate()
	log := t.Log.With("unit", unit, "run", run)
	res = &Result{Unit: unit, Run: run, Stage: StageImported}

	defer func() {
		if p := recover(); p != nil {
			d := Diagnostic{Stage: res.Stage, Kind: KindInternal, Detail: fmt.Sprint(p)}
			res.Diagnostics = append(res.Diagnostics, d)
			res.Fatal = &d
			res.Output = nil
			log.Error("internal invariant violation", "stage", res.Stage, "panic", p)
		}
	}()

	t.runPhases(ctx, res, arena, log)
	return res
}

// runPhases advances an imported arena through the remaining stages.
func (t *Translator) runPhases(ctx context.Context, res *Result, arena *ir.Arena, log *slog.Logger) {
	unit := res.Unit
	run := res.Run
	failed := make(map[ir.ItemID]bool)

	// Resolved.
	for _, e := range resolve.Run(arena, failed) {
		res.Diagnostics = append(res.Diagnostics, diagnose(StageResolved, e))
	}
	res.Stage = StageResolved

	// Desugared.
	for _, e := range simplify.Run(arena, failed) {
		res.Diagnostics = append(res.Diagnostics, diagnose(StageDesugared, e))
	}
	res.Stage = StageDesugared

	// SpecExtracted. Configuration exclusion applies once marker
	// visibility is known: an include marker beats the glob filter.
	for _, e := range extract.Run(arena, failed) {
		res.Diagnostics = append(res.Diagnostics, diagnose(StageSpecExtracted, e))
	}
	t.applyFilters(arena, failed)
	res.Stage = StageSpecExtracted

	// Elaborated. The registry rebuild is deterministic, so deferred
	// dictionary calls see exactly the impls resolution saw.
	reg := resolve.NewRegistry(arena)
	for _, e := range mono.Run(arena, reg, failed) {
		res.Diagnostics = append(res.Diagnostics, diagnose(StageElaborated, e))
	}
	res.Stage = StageElaborated

	// Ordered. Exclusion re-checks here because specialization can
	// introduce references extraction never saw.
	groups, exclErrs := order.Run(arena, failed)
	for _, e := range exclErrs {
		res.Diagnostics = append(res.Diagnostics, diagnose(StageOrdered, e))
	}
	res.Stage = StageOrdered
	log.Debug("items ordered", "groups", len(groups), "dropped", len(failed))

	// Emitted.
	manifest, err := backend.BuildManifest(run, unit, arena, groups, t.skipped(arena, failed, res.Diagnostics))
	if err != nil {
		panic(fmt.Sprintf("manifest construction failed: %v", err))
	}
	res.Output = &backend.Output{
		Run:      run,
		Unit:     unit,
		Arena:    arena,
		Groups:   groups,
		Manifest: manifest,
	}
	if hits, err := t.applyCache(ctx, res.Output); err != nil {
		// Cache trouble never fails a run; dispatch everything.
		log.Warn("cache lookup failed", "error", err)
	} else if hits > 0 {
		log.Debug("cached items skipped", "items", hits)
	}
	if err := t.Backend.Emit(ctx, res.Output); err != nil {
		d := Diagnostic{Stage: StageOrdered, Kind: KindEmit, Detail: err.Error()}
		res.Diagnostics = append(res.Diagnostics, d)
		res.Fatal = &d
		res.Output = nil
		log.Error("emission failed", "backend", t.Backend.Name(), "error", err)
		return
	}
	res.Stage = StageEmitted

	if err := t.record(ctx, res); err != nil {
		// Cache trouble never fails a run that already emitted.
		log.Warn("cache update failed", "error", err)
	}

	log.Info("translation complete",
		"groups", len(groups),
		"items", len(manifest.Items),
		"skipped", len(manifest.Skipped))
}

// TranslateAll runs units on a bounded worker pool. Results are
// positionally stable: results[i] belongs to units[i] regardless of
// completion order. Workers share only the backend, the store, and the
// read-only config.
func (t *Translator) TranslateAll(ctx context.Context, units []Unit) []*Result {
	workers := t.Config.EffectiveWorkers()
	if workers > len(units) {
		workers = len(units)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, len(units))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = t.Translate(ctx, units[i])
			}
		}()
	}
	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// applyFilters marks items excluded by the configuration globs.
// Marker-included items bypass the filter; already-excluded and failed
// items are left alone.
func (t *Translator) applyFilters(arena *ir.Arena, failed map[ir.ItemID]bool) {
	if t.Config == nil || (len(t.Config.Include) == 0 && len(t.Config.Exclude) == 0) {
		return
	}
	for _, it := range arena.Items() {
		if failed[it.ID] || it.Visibility == ir.VisExcluded || it.Visibility == ir.VisIncluded {
			continue
		}
		if !t.Config.Selected(it.Path.String()) {
			it.Visibility = ir.VisExcluded
		}
	}
}

// skipped assembles the manifest's absent-item list: excluded items and
// per-item failures, in arena order then diagnostic order.
func (t *Translator) skipped(arena *ir.Arena, failed map[ir.ItemID]bool, diags []Diagnostic) []backend.SkippedItem {
	var out []backend.SkippedItem
	reported := make(map[string]bool)

	for _, d := range diags {
		if d.Item == "" || reported[d.Item] {
			continue
		}
		reported[d.Item] = true
		out = append(out, backend.SkippedItem{Path: d.Item, Reason: d.Kind, Detail: d.Detail})
	}
	for _, it := range arena.Items() {
		path := it.Path.String()
		if reported[path] {
			continue
		}
		switch {
		case it.Visibility == ir.VisExcluded:
			reported[path] = true
			out = append(out, backend.SkippedItem{Path: path, Reason: "Excluded", Detail: "excluded from output"})
		case failed[it.ID]:
			reported[path] = true
			out = append(out, backend.SkippedItem{Path: path, Reason: "Failed", Detail: "dropped by an earlier failure"})
		}
	}
	return out
}

// applyCache drops items the store already holds for this backend.
// Cached items leave the dispatched groups and move from the manifest's
// item list to its skipped list, so the backend never re-renders a
// content digest it has rendered before. Store == nil disables caching.
func (t *Translator) applyCache(ctx context.Context, out *backend.Output) (int, error) {
	if t.Store == nil {
		return 0, nil
	}
	cached := make(map[string]bool)
	for _, mi := range out.Manifest.Items {
		seen, err := t.Store.WasEmitted(ctx, mi.Digest, t.Backend.Name())
		if err != nil {
			return 0, err
		}
		if seen {
			cached[mi.Path] = true
		}
	}
	if len(cached) == 0 {
		return 0, nil
	}

	items := out.Manifest.Items[:0]
	for _, mi := range out.Manifest.Items {
		if cached[mi.Path] {
			out.Manifest.Skipped = append(out.Manifest.Skipped, backend.SkippedItem{
				Path:   mi.Path,
				Reason: "Cached",
				Detail: "content digest already rendered by this backend",
			})
			continue
		}
		items = append(items, mi)
	}
	out.Manifest.Items = items

	groups := out.Groups[:0]
	for _, g := range out.Groups {
		members := g.Members[:0]
		var measures []ir.Expr
		if len(g.Measures) > 0 {
			measures = g.Measures[:0]
		}
		for i, id := range g.Members {
			if cached[out.Arena.Get(id).Path.String()] {
				continue
			}
			members = append(members, id)
			if len(g.Measures) > 0 {
				measures = append(measures, g.Measures[i])
			}
		}
		g.Members = members
		g.Measures = measures
		if len(g.Members) > 0 {
			groups = append(groups, g)
		}
	}
	out.Groups = groups

	mgroups := out.Manifest.Groups[:0]
	for _, mg := range out.Manifest.Groups {
		members := mg.Members[:0]
		for _, p := range mg.Members {
			if !cached[p] {
				members = append(members, p)
			}
		}
		mg.Members = members
		if len(mg.Members) > 0 {
			mgroups = append(mgroups, mg)
		}
	}
	out.Manifest.Groups = mgroups

	return len(cached), nil
}

// record updates the translation cache after a successful emission.
// Only items dispatched this run are marked; cache hits keep the run
// that originally rendered them.
func (t *Translator) record(ctx context.Context, res *Result) error {
	if t.Store == nil {
		return nil
	}
	digest, err := res.Output.Manifest.Digest()
	if err != nil {
		return err
	}
	if err := t.Store.RecordRun(ctx, store.Run{
		ID:             res.Run,
		Unit:           res.Unit,
		Backend:        t.Backend.Name(),
		ManifestDigest: digest,
		EngineVersion:  ir.EngineVersion,
		SchemaVersion:  ir.SchemaVersion,
	}); err != nil {
		return err
	}
	for _, mi := range res.Output.Manifest.Items {
		if err := t.Store.MarkEmitted(ctx, store.CachedItem{
			Digest:  mi.Digest,
			Backend: t.Backend.Name(),
			Path:    mi.Path,
			Kind:    mi.Kind,
			RunID:   res.Run,
		}); err != nil {
			return err
		}
	}
	t.Log.Debug("cache updated", "run", res.Run, "items", len(res.Output.Manifest.Items))
	return nil
}
