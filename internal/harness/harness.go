// Package harness runs YAML-described end-to-end translation scenarios
// against golden output fixtures.
//
// A scenario file names a registered item-graph fixture, the run
// configuration, and the diagnostic kinds the run is expected to raise.
// The harness translates the fixture with a fixed run token and the
// ir-json backend, asserts the expectations, and compares the emitted
// document against testdata/golden/<name>.golden.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/veil-verify/veil/internal/backend"
	"github.com/veil-verify/veil/internal/config"
	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/pipeline"
)

// Scenario is one end-to-end check, loaded from YAML.
type Scenario struct {
	// Name uniquely identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Fixture names the registered item-graph builder.
	Fixture string `yaml:"fixture"`

	// Include/Exclude are configuration globs applied to the run.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// ExpectDiagnostics lists the diagnostic kinds the run must raise,
	// order-insensitive. Empty means the run must be clean.
	ExpectDiagnostics []string `yaml:"expect_diagnostics,omitempty"`

	// ExpectStage is the stage the unit must reach. Empty means
	// Emitted.
	ExpectStage string `yaml:"expect_stage,omitempty"`
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("harness: %s: %w", path, err)
	}
	if sc.Name == "" || sc.Fixture == "" {
		return nil, fmt.Errorf("harness: %s: name and fixture are required", path)
	}
	return &sc, nil
}

// LoadScenarios reads every .yaml scenario in a directory, sorted by
// filename for stable test ordering.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	scenarios := make([]*Scenario, 0, len(matches))
	for _, m := range matches {
		sc, err := LoadScenario(m)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// fixtures maps fixture names to item-graph builders. Builders return a
// fresh arena per call; scenarios must not share mutable state.
var fixtures = map[string]func() *ir.Arena{}

// RegisterFixture makes an item-graph builder available to scenarios.
func RegisterFixture(name string, build func() *ir.Arena) {
	if _, dup := fixtures[name]; dup {
		panic(fmt.Sprintf("harness: duplicate fixture %q", name))
	}
	fixtures[name] = build
}

// Outcome is the result of executing one scenario.
type Outcome struct {
	Result *Result
	// Document is the ir-json backend's emitted bytes; empty when the
	// unit aborted before emission.
	Document []byte
}

// Result re-exports the pipeline result for assertion convenience.
type Result = pipeline.Result

// Run executes a scenario and returns its outcome. Expectation checking
// is the caller's (the test's) business; Run only fails on harness
// misuse, like an unregistered fixture.
func Run(sc *Scenario) (*Outcome, error) {
	build, ok := fixtures[sc.Fixture]
	if !ok {
		return nil, fmt.Errorf("harness: unregistered fixture %q", sc.Fixture)
	}

	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Include = sc.Include
	cfg.Exclude = sc.Exclude

	translator := pipeline.NewTranslator(cfg, &backend.IRJSON{W: &buf})
	translator.Tokens = pipeline.NewFixedGenerator("run-" + sc.Name)

	res := translator.TranslateArena(context.Background(), sc.Name, build())
	return &Outcome{Result: res, Document: buf.Bytes()}, nil
}

// CheckExpectations compares an outcome against the scenario's declared
// expectations and returns every mismatch as a message. An empty slice
// means the scenario holds.
func CheckExpectations(sc *Scenario, out *Outcome) []string {
	var problems []string

	wantStage := sc.ExpectStage
	if wantStage == "" {
		wantStage = string(pipeline.StageEmitted)
	}
	if string(out.Result.Stage) != wantStage {
		problems = append(problems,
			fmt.Sprintf("stage: got %s, want %s", out.Result.Stage, wantStage))
	}

	want := map[string]int{}
	for _, k := range sc.ExpectDiagnostics {
		want[k]++
	}
	got := map[string]int{}
	for _, d := range out.Result.Diagnostics {
		got[d.Kind]++
	}
	for k, n := range want {
		if got[k] != n {
			problems = append(problems,
				fmt.Sprintf("diagnostics: got %d of kind %s, want %d", got[k], k, n))
		}
	}
	for k, n := range got {
		if want[k] == 0 {
			problems = append(problems,
				fmt.Sprintf("diagnostics: unexpected kind %s (%d)", k, n))
		}
	}
	return problems
}
