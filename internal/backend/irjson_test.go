package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/order"
	"github.com/veil-verify/veil/internal/testutil"
)

func emitFixture(t *testing.T) (*Output, string) {
	t.Helper()
	a := ir.NewArena()

	dep := a.New(ir.KindFunction, ir.NamePath{"demo", "dep"})
	dep.Result = testutil.U32()
	dep.Body = ir.IntLit(1)

	inc := a.New(ir.KindFunction, ir.NamePath{"demo", "inc"})
	inc.Params = []ir.Param{{Name: "x", Type: testutil.U32()}}
	inc.Result = testutil.U32()
	inc.Body = ir.App2("+", &ir.App{Fn: &ir.Var{Name: "dep", Item: dep.ID}}, &ir.Var{Name: "x"})
	inc.Contract = &ir.Contract{
		Preconditions: []ir.Expr{ir.App2("<", &ir.Var{Name: "x"}, ir.IntLit(100))},
		Postconditions: []ir.Postcondition{{
			Result: "r",
			Pred:   ir.App2("<", &ir.Var{Name: "x"}, &ir.Var{Name: "r"}),
		}},
	}
	ir.RecomputeRefs(inc)

	groups := []order.Group{
		{Members: []ir.ItemID{dep.ID}},
		{Members: []ir.ItemID{inc.ID}},
	}
	m, err := BuildManifest("run-emit", "demo.veilb", a, groups, nil)
	require.NoError(t, err)

	out := &Output{Run: "run-emit", Unit: "demo.veilb", Arena: a, Groups: groups, Manifest: m}

	var buf bytes.Buffer
	be := &IRJSON{W: &buf}
	require.NoError(t, be.Emit(context.Background(), out))
	return out, buf.String()
}

func TestIRJSON_EmitDocument(t *testing.T) {
	_, raw := emitFixture(t)
	require.True(t, strings.HasSuffix(raw, "\n"))

	var doc struct {
		Run      string `json:"run"`
		Unit     string `json:"unit"`
		Schema   int    `json:"schema"`
		Manifest string `json:"manifest"`
		Groups   []struct {
			Recursive bool `json:"recursive"`
			Members   []struct {
				Path     string   `json:"path"`
				Kind     string   `json:"kind"`
				Body     string   `json:"body"`
				Params   []string `json:"params"`
				Result   string   `json:"result"`
				Contract struct {
					Requires []string `json:"requires"`
					Ensures  []struct {
						Result string `json:"result"`
						Pred   string `json:"pred"`
					} `json:"ensures"`
				} `json:"contract"`
			} `json:"members"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "run-emit", doc.Run)
	assert.Equal(t, "demo.veilb", doc.Unit)
	assert.Equal(t, ir.SchemaVersion, doc.Schema)
	assert.NotEmpty(t, doc.Manifest)

	require.Len(t, doc.Groups, 2)
	incDoc := doc.Groups[1].Members[0]
	assert.Equal(t, "demo::inc", incDoc.Path)
	assert.Equal(t, []string{"x:u32"}, incDoc.Params)
	assert.Equal(t, "u32", incDoc.Result)

	// Arena handles render as paths, never run-local numbers.
	assert.Equal(t, "(app + (app dep@demo::dep) x)", incDoc.Body)
	assert.NotContains(t, incDoc.Body, "#")

	assert.Equal(t, []string{"(app < x 100)"}, incDoc.Contract.Requires)
	require.Len(t, incDoc.Contract.Ensures, 1)
	assert.Equal(t, "r", incDoc.Contract.Ensures[0].Result)
	assert.Equal(t, "(app < x r)", incDoc.Contract.Ensures[0].Pred)
}

// Identical input renders byte-identically; only the run token differs.
func TestIRJSON_DeterministicAcrossRuns(t *testing.T) {
	_, first := emitFixture(t)
	_, second := emitFixture(t)
	assert.Equal(t, first, second)
}

// Opaque bodies never reach the output document.
func TestIRJSON_HidesOpaqueBodies(t *testing.T) {
	a := ir.NewArena()
	f := a.New(ir.KindFunction, ir.NamePath{"demo", "secret"})
	f.Result = testutil.U32()
	f.Body = ir.IntLit(42)
	f.Visibility = ir.VisOpaque
	f.Contract = &ir.Contract{
		Postconditions: []ir.Postcondition{{Result: "r", Pred: ir.BoolLit(true)}},
	}

	groups := []order.Group{{Members: []ir.ItemID{f.ID}}}
	m, err := BuildManifest("run-opaque", "demo.veilb", a, groups, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	be := &IRJSON{W: &buf}
	require.NoError(t, be.Emit(context.Background(), &Output{
		Run: "run-opaque", Unit: "demo.veilb", Arena: a, Groups: groups, Manifest: m,
	}))

	assert.NotContains(t, buf.String(), "42")
	assert.Contains(t, buf.String(), `"visibility":"opaque"`)
	assert.Contains(t, buf.String(), `"contract"`)
}

func TestIRJSON_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	be := &IRJSON{W: &buf}
	err := be.Emit(ctx, &Output{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
