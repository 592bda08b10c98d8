// File: internal/analysis/patterns/detector.go

// Package patterns flags structural design patterns, anti-patterns, and
// near-duplicate function bodies.
package patterns

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

// Result bundles everything one detection run produces.
type Result struct {
	Patterns     []schemas.PatternMatch
	AntiPatterns []schemas.AntiPatternFinding
	Duplicates   []schemas.DuplicateFinding
}

// commonNumbers are the numeric literals that never count as magic.
var commonNumbers = map[string]bool{
	"0": true, "1": true, "-1": true, "2": true,
	"10": true, "100": true, "1000": true,
}

var nestingAncestorTypes = map[string]bool{
	"if_statement":     true,
	"for_statement":    true,
	"for_in_statement": true,
	"while_statement":  true,
	"do_statement":     true,
}

// Detect runs the pattern, anti-pattern, and duplicate detectors over one
// parsed script. An empty parse yields empty results.
func Detect(result *jsparser.ParseResult, cfg config.AnalysisConfig, logger *zap.Logger) Result {
	log := logger.Named("pattern_detector")
	out := Result{
		Patterns:     []schemas.PatternMatch{},
		AntiPatterns: []schemas.AntiPatternFinding{},
		Duplicates:   []schemas.DuplicateFinding{},
	}

	root := result.Root()
	if root == nil {
		return out
	}
	source := result.Source

	jsparser.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "variable_declarator":
			if match, ok := detectSingleton(n, source); ok {
				out.Patterns = append(out.Patterns, match)
			}
		case "class_declaration":
			if match, ok := detectObserver(n, source); ok {
				out.Patterns = append(out.Patterns, match)
			}
		case "function_declaration", "function", "function_expression", "arrow_function", "method_definition":
			if finding, ok := detectLongFunction(n, cfg.LongFunctionLines); ok {
				out.AntiPatterns = append(out.AntiPatterns, finding)
			}
		case "if_statement":
			if finding, ok := detectDeepNesting(n, cfg.DeepNestingDepth); ok {
				out.AntiPatterns = append(out.AntiPatterns, finding)
			}
		case "number":
			if finding, ok := detectMagicNumber(n, source); ok {
				out.AntiPatterns = append(out.AntiPatterns, finding)
			}
		case "catch_clause":
			if finding, ok := detectEmptyCatch(n); ok {
				out.AntiPatterns = append(out.AntiPatterns, finding)
			}
		case "variable_declaration":
			out.AntiPatterns = append(out.AntiPatterns, schemas.AntiPatternFinding{
				Name:           "use of var",
				Line:           jsparser.Line(n),
				Severity:       schemas.SeverityLow,
				Recommendation: "Replace var with let or const to get block scoping.",
			})
		}
		return true
	})

	out.Duplicates = detectDuplicates(root, source, cfg, log)

	log.Debug("Pattern detection complete.",
		zap.Int("patterns", len(out.Patterns)),
		zap.Int("anti_patterns", len(out.AntiPatterns)),
		zap.Int("duplicates", len(out.Duplicates)))
	return out
}

// detectSingleton matches `const x = (function(){ ... return {...}; })()`:
// a variable initialized by an IIFE whose body returns an object literal.
func detectSingleton(declarator *sitter.Node, source []byte) (schemas.PatternMatch, bool) {
	value := declarator.ChildByFieldName("value")
	if value == nil || value.Type() != "call_expression" {
		return schemas.PatternMatch{}, false
	}

	callee := value.ChildByFieldName("function")
	if callee == nil || callee.Type() != "parenthesized_expression" {
		return schemas.PatternMatch{}, false
	}
	var fn *sitter.Node
	for i := 0; i < int(callee.NamedChildCount()); i++ {
		child := callee.NamedChild(i)
		if child.Type() == "function" || child.Type() == "function_expression" || child.Type() == "arrow_function" {
			fn = child
			break
		}
	}
	if fn == nil || !returnsObjectLiteral(fn) {
		return schemas.PatternMatch{}, false
	}

	name := jsparser.Content(declarator.ChildByFieldName("name"), source)
	return schemas.PatternMatch{
		Name:        "singleton",
		Line:        jsparser.Line(declarator),
		Description: "Variable " + name + " is initialized by an IIFE returning an object literal.",
	}, true
}

func returnsObjectLiteral(fn *sitter.Node) bool {
	found := false
	jsparser.Walk(fn, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.Type() == "return_statement" {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if n.NamedChild(i).Type() == "object" {
					found = true
				}
			}
		}
		return true
	})
	return found
}

// detectObserver matches a class exposing subscribe, unsubscribe, and
// notify methods.
func detectObserver(class *sitter.Node, source []byte) (schemas.PatternMatch, bool) {
	body := class.ChildByFieldName("body")
	if body == nil {
		return schemas.PatternMatch{}, false
	}
	methods := map[string]bool{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "method_definition" {
			methods[jsparser.Content(member.ChildByFieldName("name"), source)] = true
		}
	}
	if !methods["subscribe"] || !methods["unsubscribe"] || !methods["notify"] {
		return schemas.PatternMatch{}, false
	}
	return schemas.PatternMatch{
		Name:        "observer",
		Line:        jsparser.Line(class),
		Description: "Class " + jsparser.Content(class.ChildByFieldName("name"), source) + " implements subscribe/unsubscribe/notify.",
	}, true
}

func detectLongFunction(fn *sitter.Node, maxLines int) (schemas.AntiPatternFinding, bool) {
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return schemas.AntiPatternFinding{}, false
	}
	if jsparser.LineCount(body) <= maxLines {
		return schemas.AntiPatternFinding{}, false
	}
	return schemas.AntiPatternFinding{
		Name:           "long function",
		Line:           jsparser.Line(fn),
		Severity:       schemas.SeverityMedium,
		Recommendation: "Split this function; bodies over " + strconv.Itoa(maxLines) + " lines resist review and reuse.",
	}, true
}

// detectDeepNesting fires when an if statement is nested more than
// maxDepth levels deep, counting the statement itself and its
// if/for/while ancestors.
func detectDeepNesting(ifStmt *sitter.Node, maxDepth int) (schemas.AntiPatternFinding, bool) {
	depth := 1
	for p := ifStmt.Parent(); p != nil; p = p.Parent() {
		if nestingAncestorTypes[p.Type()] {
			depth++
		}
	}
	if depth <= maxDepth {
		return schemas.AntiPatternFinding{}, false
	}
	return schemas.AntiPatternFinding{
		Name:           "deep nesting",
		Line:           jsparser.Line(ifStmt),
		Severity:       schemas.SeverityMedium,
		Recommendation: "Flatten control flow with early returns or extracted helpers.",
	}, true
}

func detectMagicNumber(number *sitter.Node, source []byte) (schemas.AntiPatternFinding, bool) {
	text := jsparser.Content(number, source)

	parent := number.Parent()
	if parent != nil {
		switch parent.Type() {
		case "unary_expression":
			// Treat -1 (and friends) as the signed literal.
			if jsparser.Content(parent.ChildByFieldName("operator"), source) == "-" {
				text = "-" + text
				parent = parent.Parent()
			}
		}
	}
	if commonNumbers[text] {
		return schemas.AntiPatternFinding{}, false
	}

	// Index literals and default parameter values are exempt.
	if parent != nil {
		switch parent.Type() {
		case "subscript_expression", "member_expression":
			return schemas.AntiPatternFinding{}, false
		case "assignment_pattern":
			if inFormalParameters(parent) {
				return schemas.AntiPatternFinding{}, false
			}
		}
	}

	return schemas.AntiPatternFinding{
		Name:           "magic number",
		Line:           jsparser.Line(number),
		Severity:       schemas.SeverityLow,
		Recommendation: "Extract " + text + " into a named constant.",
	}, true
}

func inFormalParameters(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "formal_parameters":
			return true
		case "statement_block", "program":
			return false
		}
	}
	return false
}

func detectEmptyCatch(catch *sitter.Node) (schemas.AntiPatternFinding, bool) {
	body := catch.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() > 0 {
		return schemas.AntiPatternFinding{}, false
	}
	return schemas.AntiPatternFinding{
		Name:           "empty catch block",
		Line:           jsparser.Line(catch),
		Severity:       schemas.SeverityHigh,
		Recommendation: "Handle or at least log the error; a silent catch hides failures.",
	}, true
}
