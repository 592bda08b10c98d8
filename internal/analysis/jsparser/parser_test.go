// File: internal/analysis/jsparser/parser_test.go
package jsparser

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func parseSource(t *testing.T, source string) *ParseResult {
	t.Helper()
	result := Parse(context.Background(), []byte(source), zaptest.NewLogger(t))
	t.Cleanup(result.Close)
	return result
}

func TestParsePlainJavaScript(t *testing.T) {
	result := parseSource(t, `function add(a, b) { return a + b; }`)

	if result.Root() == nil {
		t.Fatal("expected a parse tree for valid JavaScript")
	}
	if result.Grammar != "javascript" {
		t.Errorf("grammar = %q, want javascript", result.Grammar)
	}
	if result.Root().Type() != "program" {
		t.Errorf("root type = %q, want program", result.Root().Type())
	}
}

func TestParseEmptySourceIsFailSoft(t *testing.T) {
	result := parseSource(t, "")
	if result.Root() != nil {
		t.Error("empty source should yield an empty result, not a tree")
	}
	// Close on an empty result must not panic.
	result.Close()
}

func TestParseJSXHandledByJavaScriptGrammar(t *testing.T) {
	result := parseSource(t, `const App = () => <div className="x">{value}</div>;`)
	if result.Root() == nil {
		t.Fatal("expected a parse tree for JSX")
	}
	if result.Root().HasError() {
		t.Error("JSX should parse without errors under the javascript grammar")
	}
}

func TestParseTypedSourceFallsBackToTSX(t *testing.T) {
	source := `
interface Shape { area(): number; }
function describe(s: Shape): string {
  return "area=" + s.area();
}
`
	result := parseSource(t, source)
	if result.Root() == nil {
		t.Fatal("expected a parse tree for typed source")
	}
	if result.Grammar != "tsx" {
		t.Errorf("grammar = %q, want tsx for typed source", result.Grammar)
	}
}

func TestFlattenPropertyAccess(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`window.location.search;`, "window.location.search"},
		{`location["hash"];`, "location.hash"},
		{`document.cookie;`, "document.cookie"},
	}

	for _, tt := range tests {
		result := parseSource(t, tt.source)
		root := result.Root()
		if root == nil {
			t.Fatalf("parse failed for %q", tt.source)
		}
		expr := root.NamedChild(0).NamedChild(0)
		path := FlattenPropertyAccess(expr, result.Source)
		joined := ""
		for i, p := range path {
			if i > 0 {
				joined += "."
			}
			joined += p
		}
		if joined != tt.want {
			t.Errorf("FlattenPropertyAccess(%q) = %q, want %q", tt.source, joined, tt.want)
		}
	}
}

func TestFlattenPropertyAccessComputedIndexIsNil(t *testing.T) {
	result := parseSource(t, `obj[key];`)
	expr := result.Root().NamedChild(0).NamedChild(0)
	if path := FlattenPropertyAccess(expr, result.Source); path != nil {
		t.Errorf("computed index should not flatten, got %v", path)
	}
}
