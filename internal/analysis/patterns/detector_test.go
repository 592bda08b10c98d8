// File: internal/analysis/patterns/detector_test.go
package patterns

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		LongFunctionLines:   50,
		DeepNestingDepth:    3,
		DuplicateSimilarity: 0.85,
		DuplicateLengthSkew: 0.30,
	}
}

func detect(t *testing.T, source string, cfg config.AnalysisConfig) Result {
	t.Helper()
	logger := zaptest.NewLogger(t)
	parsed := jsparser.Parse(context.Background(), []byte(source), logger)
	t.Cleanup(parsed.Close)
	return Detect(parsed, cfg, logger)
}

func TestDetectSingleton(t *testing.T) {
	source := `const store = (function() {
  let items = [];
  return { add: function(x) { items.push(x); } };
})();`
	result := detect(t, source, testAnalysisConfig())

	require.Len(t, result.Patterns, 1)
	assert.Equal(t, "singleton", result.Patterns[0].Name)
	assert.Equal(t, 1, result.Patterns[0].Line)
}

func TestDetectObserver(t *testing.T) {
	source := `class EventBus {
  subscribe(fn) { this.handlers.push(fn); }
  unsubscribe(fn) { this.handlers = this.handlers.filter(h => h !== fn); }
  notify(evt) { this.handlers.forEach(h => h(evt)); }
}`
	result := detect(t, source, testAnalysisConfig())

	require.Len(t, result.Patterns, 1)
	assert.Equal(t, "observer", result.Patterns[0].Name)
}

func TestObserverRequiresAllThreeMethods(t *testing.T) {
	source := `class Half {
  subscribe(fn) { this.handlers.push(fn); }
  notify(evt) { this.handlers.forEach(h => h(evt)); }
}`
	result := detect(t, source, testAnalysisConfig())
	assert.Empty(t, result.Patterns)
}

func TestDetectLongFunction(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("function big() {\n")
	for i := 0; i < 60; i++ {
		sb.WriteString("  doWork();\n")
	}
	sb.WriteString("}\n")

	result := detect(t, sb.String(), testAnalysisConfig())

	found := false
	for _, f := range result.AntiPatterns {
		if f.Name == "long function" {
			found = true
			assert.Equal(t, "medium", string(f.Severity))
			assert.Equal(t, 1, f.Line)
		}
	}
	assert.True(t, found, "expected a long function finding")
}

func TestDetectDeepNesting(t *testing.T) {
	source := `function f(a, b, c, d) {
  if (a) {
    if (b) {
      if (c) {
        if (d) {
          return 1;
        }
      }
    }
  }
}`
	result := detect(t, source, testAnalysisConfig())

	count := 0
	for _, f := range result.AntiPatterns {
		if f.Name == "deep nesting" {
			count++
			assert.Equal(t, "medium", string(f.Severity))
		}
	}
	assert.Equal(t, 1, count, "only the innermost if should exceed the depth limit")
}

func TestDetectMagicNumber(t *testing.T) {
	source := `const timeout = 86400;`
	result := detect(t, source, testAnalysisConfig())

	require.Len(t, result.AntiPatterns, 1)
	assert.Equal(t, "magic number", result.AntiPatterns[0].Name)
	assert.Equal(t, "low", string(result.AntiPatterns[0].Severity))
	assert.Contains(t, result.AntiPatterns[0].Recommendation, "86400")
}

func TestMagicNumberExemptions(t *testing.T) {
	cases := map[string]string{
		"common literal":    `const n = 100;`,
		"negative one":      `const idx = -1;`,
		"array index":       `const x = items[7];`,
		"default parameter": `function pad(width = 8) { return width; }`,
	}
	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			result := detect(t, source, testAnalysisConfig())
			for _, f := range result.AntiPatterns {
				assert.NotEqual(t, "magic number", f.Name)
			}
		})
	}
}

func TestDetectEmptyCatch(t *testing.T) {
	source := `try {
  risky();
} catch (e) {
}`
	result := detect(t, source, testAnalysisConfig())

	matches := 0
	for _, f := range result.AntiPatterns {
		if f.Name == "empty catch block" {
			matches++
			assert.Equal(t, "high", string(f.Severity))
			assert.Equal(t, 3, f.Line)
		}
	}
	assert.Equal(t, 1, matches, "an empty catch must yield exactly one high finding")
}

func TestNonEmptyCatchIsClean(t *testing.T) {
	source := `try { risky(); } catch (e) { console.log(e); }`
	result := detect(t, source, testAnalysisConfig())
	for _, f := range result.AntiPatterns {
		assert.NotEqual(t, "empty catch block", f.Name)
	}
}

func TestDetectUseOfVar(t *testing.T) {
	result := detect(t, `var legacy = 1; let modern = 2;`, testAnalysisConfig())

	count := 0
	for _, f := range result.AntiPatterns {
		if f.Name == "use of var" {
			count++
			assert.Equal(t, "low", string(f.Severity))
		}
	}
	assert.Equal(t, 1, count)
}

func TestExactDuplicateDetection(t *testing.T) {
	source := `function first(list) {
  let total = 0;
  for (const item of list) { total += item.price; }
  return total;
}
const second = function(list) {
  let total = 0;
  for (const item of list) { total += item.price; }
  return total;
};`
	result := detect(t, source, testAnalysisConfig())

	// The declaration and the expression differ in header text, so the raw
	// hash differs, but the normalized bodies line up.
	require.NotEmpty(t, result.Duplicates)
	dup := result.Duplicates[0]
	assert.Equal(t, "first", dup.First.Name)
	assert.Equal(t, "second", dup.Second.Name)
	assert.GreaterOrEqual(t, dup.Similarity, 0.85)
}

func TestRenamedDuplicateDetection(t *testing.T) {
	source := `function sumPrices(list) {
  let total = 0;
  for (const item of list) { total += item.price; }
  return total;
}
function sumCosts(rows) {
  let acc = 0;
  for (const row of rows) { acc += row.price; }
  return acc;
}`
	result := detect(t, source, testAnalysisConfig())

	require.Len(t, result.Duplicates, 1)
	assert.GreaterOrEqual(t, result.Duplicates[0].Similarity, 0.85)
}

func TestUnrelatedFunctionsNotDuplicates(t *testing.T) {
	source := `function parse(text) { return JSON.parse(text); }
function render(node, children, attrs) {
  const el = document.createElement(node);
  for (const key of Object.keys(attrs)) { el.setAttribute(key, attrs[key]); }
  children.forEach(c => el.appendChild(c));
  return el;
}`
	result := detect(t, source, testAnalysisConfig())
	assert.Empty(t, result.Duplicates)
}

func TestNormalizedSelfSimilarityIsOne(t *testing.T) {
	source := `function a(x) { return x + 1; }`
	logger := zaptest.NewLogger(t)
	parsed := jsparser.Parse(context.Background(), []byte(source), logger)
	defer parsed.Close()

	candidates := collectCandidates(parsed.Root(), parsed.Source)
	require.Len(t, candidates, 1)
	assert.Equal(t, 1.0, similarity(candidates[0].normalized, candidates[0].normalized))
}

func TestSimilarityIsSymmetric(t *testing.T) {
	a, b := "program(return(VAR_0))", "program(return(binary(VAR_0,0)))"
	assert.Equal(t, similarity(a, b), similarity(b, a))
}

func TestLengthSkewPreFilter(t *testing.T) {
	assert.True(t, lengthsComparable(100, 80, 0.30))
	assert.False(t, lengthsComparable(100, 40, 0.30))
	assert.True(t, lengthsComparable(0, 0, 0.30))
	assert.False(t, lengthsComparable(0, 10, 0.30))
}

func TestEmptySourceYieldsEmptyResult(t *testing.T) {
	result := detect(t, "", testAnalysisConfig())
	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.AntiPatterns)
	assert.Empty(t, result.Duplicates)
}
