// File: internal/analysis/complexity/scorer.go

// Package complexity computes cyclomatic, cognitive, Halstead, and
// maintainability metrics for a whole script in a single walk.
package complexity

import (
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
)

// nestingNodeTypes increase the cognitive nesting level while inside them.
var nestingNodeTypes = map[string]bool{
	"if_statement":     true,
	"for_statement":    true,
	"for_in_statement": true,
	"while_statement":  true,
	"do_statement":     true,
}

// cyclomaticNodeTypes each add one decision path.
var cyclomaticNodeTypes = map[string]bool{
	"if_statement":       true,
	"switch_case":        true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"ternary_expression": true,
	"catch_clause":       true,
}

// operandNodeTypes feed the Halstead operand counts. Identifiers count by
// name, literals by value.
var operandNodeTypes = map[string]bool{
	"identifier":                    true,
	"property_identifier":           true,
	"shorthand_property_identifier": true,
	"number":                        true,
	"string":                        true,
	"template_string":               true,
}

type counters struct {
	cyclomatic int
	cognitive  int
	nesting    int

	operators     int
	operatorKinds map[string]bool
	operands      int
	operandKinds  map[string]bool
}

// Score walks the tree once and derives every metric. On an empty parse the
// identity values apply: cyclomatic 1, cognitive 0, Halstead zeros.
func Score(result *jsparser.ParseResult, logger *zap.Logger) schemas.ComplexityMetrics {
	log := logger.Named("complexity_scorer")

	c := &counters{
		cyclomatic:    1,
		operatorKinds: map[string]bool{},
		operandKinds:  map[string]bool{},
	}

	if root := result.Root(); root != nil {
		visit(root, result.Source, c)
	}

	loc := countLines(result.Source)
	metrics := derive(c, loc)
	log.Debug("Complexity scoring complete.",
		zap.Int("cyclomatic", metrics.Cyclomatic),
		zap.Int("cognitive", metrics.Cognitive),
		zap.Float64("maintainability", metrics.Maintainability))
	return metrics
}

func visit(n *sitter.Node, source []byte, c *counters) {
	t := n.Type()

	if cyclomaticNodeTypes[t] {
		c.cyclomatic++
	}

	switch t {
	case "binary_expression":
		op := jsparser.Content(n.ChildByFieldName("operator"), source)
		if op == "&&" || op == "||" {
			c.cyclomatic++
		}
		c.recordOperator(op)
	case "unary_expression", "update_expression":
		c.recordOperator(jsparser.Content(n.ChildByFieldName("operator"), source))
	case "assignment_expression":
		c.recordOperator("=")
	case "augmented_assignment_expression":
		c.recordOperator(jsparser.Content(n.ChildByFieldName("operator"), source))
	case "ternary_expression":
		c.recordOperator("?:")
	}

	if operandNodeTypes[t] {
		c.recordOperand(jsparser.Content(n, source))
	}

	if nestingNodeTypes[t] {
		c.nesting++
		c.cognitive += c.nesting
		defer func() { c.nesting-- }()
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i), source, c)
	}
}

func (c *counters) recordOperator(op string) {
	if op == "" {
		return
	}
	c.operators++
	c.operatorKinds[op] = true
}

func (c *counters) recordOperand(value string) {
	if value == "" {
		return
	}
	c.operands++
	c.operandKinds[value] = true
}

func derive(c *counters, loc int) schemas.ComplexityMetrics {
	n1 := len(c.operatorKinds)
	n2 := len(c.operandKinds)

	h := schemas.HalsteadMetrics{
		DistinctOperators: n1,
		TotalOperators:    c.operators,
		DistinctOperands:  n2,
		TotalOperands:     c.operands,
		Vocabulary:        n1 + n2,
		Length:            c.operators + c.operands,
	}
	h.Volume = float64(h.Length) * math.Log2(math.Max(float64(h.Vocabulary), 1))
	h.Difficulty = float64(n1) / 2 * float64(h.TotalOperands) / math.Max(float64(n2), 1)
	h.Effort = h.Difficulty * float64(h.Length)

	return schemas.ComplexityMetrics{
		Cyclomatic:      c.cyclomatic,
		Cognitive:       c.cognitive,
		Halstead:        h,
		Maintainability: maintainabilityIndex(h.Volume, c.cyclomatic, loc),
		LinesOfCode:     loc,
	}
}

// maintainabilityIndex implements the classic composite formula with the
// log operands clamped to >= 1 to avoid domain errors, and the result
// floored at 0.
func maintainabilityIndex(volume float64, cyclomatic, loc int) float64 {
	mi := 171 -
		5.2*math.Log(math.Max(volume, 1)) -
		0.23*float64(cyclomatic) -
		16.2*math.Log(math.Max(float64(loc), 1))
	return math.Max(0, mi)
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return strings.Count(string(source), "\n") + 1
}
