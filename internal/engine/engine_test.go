// File: internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRiskIdentifier struct {
	risks []schemas.SecurityRisk
	err   error
}

func (s *stubRiskIdentifier) IdentifyRisks(_ context.Context, _ string) ([]schemas.SecurityRisk, error) {
	return s.risks, s.err
}

type stubRefiner struct {
	paths  []schemas.TaintPath
	err    error
	called bool
}

func (s *stubRefiner) Refine(_ context.Context, _ []byte, _ schemas.DataFlowAnalysis) ([]schemas.TaintPath, error) {
	s.called = true
	return s.paths, s.err
}

func newTestEngine(t *testing.T, risks schemas.RiskIdentifier, refiner *stubRefiner) *Engine {
	t.Helper()
	cfg := config.NewDefaultConfig()
	if refiner != nil {
		cfg.SetLLMRefinementEnabled(true)
		return New(cfg, zaptest.NewLogger(t), risks, refiner)
	}
	return New(cfg, zaptest.NewLogger(t), risks, nil)
}

const sampleScript = `var q = location.search;
eval(q);
function add(a, b) { return a + b; }
function run() { return add(1, 2); }
run();`

func TestAnalyzeFullPipeline(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{
		Name:   "sample.js",
		Source: sampleScript,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "sample.js", result.Name)
	assert.Len(t, result.Structure.Functions, 2)
	require.Len(t, result.DataFlow.TaintPaths, 1)
	assert.Equal(t, schemas.SinkKindEval, result.DataFlow.TaintPaths[0].Sink.Kind)
	assert.GreaterOrEqual(t, result.ComplexityMetrics.Cyclomatic, 1)
	assert.NotEmpty(t, result.Obfuscation.Tags)
	assert.GreaterOrEqual(t, result.QualityScore, 0)
	assert.LessOrEqual(t, result.QualityScore, 100)
}

func TestAnalyzeIsDeterministicWithoutCollaborators(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	unit := schemas.SourceUnit{Name: "repeat.js", Source: sampleScript}

	first, err := e.Analyze(context.Background(), unit)
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), unit)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first.Structure, second.Structure))
	assert.Empty(t, cmp.Diff(first.ComplexityMetrics, second.ComplexityMetrics))
	assert.Empty(t, cmp.Diff(first.CodePatterns, second.CodePatterns))
	assert.Empty(t, cmp.Diff(first.AntiPatterns, second.AntiPatterns))
	assert.Empty(t, cmp.Diff(first.DataFlow, second.DataFlow))
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAnalyzeEmptySourceFailsSoft(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "empty.js", Source: ""})
	require.NoError(t, err)

	assert.Empty(t, result.Structure.Functions)
	assert.Empty(t, result.DataFlow.TaintPaths)
	assert.Equal(t, 1, result.ComplexityMetrics.Cyclomatic)
	require.Len(t, result.Obfuscation.Tags, 1)
	assert.Equal(t, "unknown", result.Obfuscation.Tags[0].Type)
}

func TestAnalyzePassesContextThrough(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	callerContext := map[string]interface{}{"page": "https://example.test/checkout"}

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{
		Name:    "ctx.js",
		Source:  "var x = 1;",
		Focus:   schemas.FocusSecurity,
		Context: callerContext,
	})
	require.NoError(t, err)
	assert.Equal(t, callerContext, result.Context)
	assert.Equal(t, schemas.FocusSecurity, result.Focus)
}

func TestAnalyzeWithRiskIdentifier(t *testing.T) {
	risks := &stubRiskIdentifier{risks: []schemas.SecurityRisk{{Severity: schemas.SeverityCritical}}}
	e := newTestEngine(t, risks, nil)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "r.js", Source: "var x = 1;"})
	require.NoError(t, err)

	require.Len(t, result.SecurityRisks, 1)
	withoutRisks, err := newTestEngine(t, nil, nil).Analyze(context.Background(), schemas.SourceUnit{Name: "r.js", Source: "var x = 1;"})
	require.NoError(t, err)
	assert.Less(t, result.QualityScore, withoutRisks.QualityScore)
}

func TestRiskIdentifierFailureIsNonFatal(t *testing.T) {
	risks := &stubRiskIdentifier{err: errors.New("collaborator offline")}
	e := newTestEngine(t, risks, nil)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "r.js", Source: "var x = 1;"})
	require.NoError(t, err)
	assert.Empty(t, result.SecurityRisks)
}

func TestRefinerMergesAdditionalPaths(t *testing.T) {
	refiner := &stubRefiner{paths: []schemas.TaintPath{{
		Source:  schemas.TaintSourceInfo{Kind: schemas.SourceKindStorage, Name: "document.cookie", Line: 10},
		Sink:    schemas.TaintSinkInfo{Kind: schemas.SinkKindXSS, Name: "el.innerHTML", Line: 20},
		Refined: true,
	}}}
	e := newTestEngine(t, nil, refiner)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "ref.js", Source: sampleScript})
	require.NoError(t, err)

	assert.True(t, refiner.called)
	require.Len(t, result.DataFlow.TaintPaths, 2)
	assert.False(t, result.DataFlow.TaintPaths[0].Refined)
	assert.True(t, result.DataFlow.TaintPaths[1].Refined)
}

func TestRefinerSkippedWithoutStaticPaths(t *testing.T) {
	refiner := &stubRefiner{}
	e := newTestEngine(t, nil, refiner)

	_, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "clean.js", Source: "var x = 1;"})
	require.NoError(t, err)
	assert.False(t, refiner.called, "refinement must not run when no static path exists")
}

func TestRefinerFailureDegradesToNoAdditionalPaths(t *testing.T) {
	refiner := &stubRefiner{err: errors.New("model timeout")}
	e := newTestEngine(t, nil, refiner)

	result, err := e.Analyze(context.Background(), schemas.SourceUnit{Name: "ref.js", Source: sampleScript})
	require.NoError(t, err)
	require.Len(t, result.DataFlow.TaintPaths, 1)
	assert.False(t, result.DataFlow.TaintPaths[0].Refined)
}
