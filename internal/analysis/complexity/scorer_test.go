// File: internal/analysis/complexity/scorer_test.go
package complexity

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
)

func score(t *testing.T, source string) schemas.ComplexityMetrics {
	t.Helper()
	logger := zaptest.NewLogger(t)
	result := jsparser.Parse(context.Background(), []byte(source), logger)
	t.Cleanup(result.Close)
	return Score(result, logger)
}

func TestCyclomaticBaseline(t *testing.T) {
	m := score(t, `const x = 1;`)
	if m.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1 for straight-line code", m.Cyclomatic)
	}
	if m.Cognitive != 0 {
		t.Errorf("cognitive = %d, want 0", m.Cognitive)
	}
}

func TestCyclomaticDecisionPoints(t *testing.T) {
	source := `
function f(a, b) {
  if (a && b) { return 1; }
  for (let i = 0; i < 10; i++) {}
  const v = a ? 1 : 2;
  try { g(); } catch (e) { h(); }
  switch (a) {
    case 1: break;
    case 2: break;
  }
}
`
	m := score(t, source)
	// 1 + if + && + for + ternary + catch + two cases = 8
	if m.Cyclomatic != 8 {
		t.Errorf("cyclomatic = %d, want 8", m.Cyclomatic)
	}
}

func TestCognitiveWeighsNesting(t *testing.T) {
	flat := score(t, `
if (a) {}
if (b) {}
if (c) {}
`)
	nested := score(t, `
if (a) {
  if (b) {
    if (c) {}
  }
}
`)
	// Flat: 1+1+1=3. Nested: 1+2+3=6.
	if flat.Cognitive != 3 {
		t.Errorf("flat cognitive = %d, want 3", flat.Cognitive)
	}
	if nested.Cognitive != 6 {
		t.Errorf("nested cognitive = %d, want 6", nested.Cognitive)
	}
	if nested.Cognitive <= flat.Cognitive {
		t.Error("nesting must cost more than the same constructs at top level")
	}
}

func TestHalsteadCounts(t *testing.T) {
	m := score(t, `const total = price + price;`)

	h := m.Halstead
	if h.TotalOperators == 0 || h.DistinctOperators == 0 {
		t.Errorf("operators not counted: %+v", h)
	}
	// price appears twice but is one distinct operand.
	if h.TotalOperands <= h.DistinctOperands {
		t.Errorf("repeated operand should raise total above distinct: %+v", h)
	}
	if h.Vocabulary != h.DistinctOperators+h.DistinctOperands {
		t.Errorf("vocabulary = %d, want n1+n2", h.Vocabulary)
	}
	if h.Length != h.TotalOperators+h.TotalOperands {
		t.Errorf("length = %d, want N1+N2", h.Length)
	}
}

func TestMaintainabilityBounds(t *testing.T) {
	small := score(t, `const x = 1;`)
	if small.Maintainability <= 0 || small.Maintainability > 171 {
		t.Errorf("maintainability = %f out of range", small.Maintainability)
	}
}

func TestEmptySourceDefaults(t *testing.T) {
	m := score(t, "")
	if m.Cyclomatic != 1 {
		t.Errorf("cyclomatic default = %d, want 1", m.Cyclomatic)
	}
	if m.Cognitive != 0 {
		t.Errorf("cognitive default = %d, want 0", m.Cognitive)
	}
	if m.Halstead.Length != 0 || m.Halstead.Vocabulary != 0 {
		t.Errorf("halstead should be zero on empty source: %+v", m.Halstead)
	}
	if m.LinesOfCode != 0 {
		t.Errorf("loc = %d, want 0", m.LinesOfCode)
	}
}

func TestDeterministic(t *testing.T) {
	source := `function f(a){ if(a){ return a * 2; } return 0; }`
	first := score(t, source)
	second := score(t, source)
	if first != second {
		t.Errorf("scoring must be deterministic: %+v vs %+v", first, second)
	}
}
