// File: internal/analysis/structure/extractor.go

// Package structure extracts functions, classes, module edges, and an
// intra-file call graph from a parsed script.
package structure

import (
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
)

// functionNodeTypes covers every shape a function takes in the grammar.
// "function" is the expression form; the tsx grammar adds nothing new here.
var functionNodeTypes = map[string]bool{
	"function_declaration":           true,
	"function":                       true,
	"function_expression":            true,
	"generator_function_declaration": true,
	"generator_function":             true,
	"arrow_function":                 true,
}

// decisionNodeTypes are the constructs that add a control-flow path.
var decisionNodeTypes = map[string]bool{
	"if_statement":       true,
	"switch_case":        true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"ternary_expression": true,
	"catch_clause":       true,
}

// Extract walks the tree three times: once for functions and classes, once
// for module import/export edges, and once for the call graph. An empty
// parse yields an empty structure.
func Extract(result *jsparser.ParseResult, logger *zap.Logger) schemas.CodeStructure {
	log := logger.Named("structure_extractor")
	out := schemas.CodeStructure{
		Functions: []schemas.FunctionInfo{},
		Classes:   []schemas.ClassInfo{},
		CallGraph: schemas.CallGraph{
			Nodes: []schemas.CallGraphNode{},
			Edges: []schemas.CallGraphEdge{},
		},
	}

	root := result.Root()
	if root == nil {
		return out
	}
	source := result.Source

	collectFunctionsAndClasses(root, source, &out)
	out.Module = collectModuleEdges(root, source)
	out.CallGraph = buildCallGraph(root, source, out.Functions)

	log.Debug("Structural extraction complete.",
		zap.Int("functions", len(out.Functions)),
		zap.Int("classes", len(out.Classes)),
		zap.Int("call_edges", len(out.CallGraph.Edges)))
	return out
}

// -- Walk 1: functions and classes --

func collectFunctionsAndClasses(root *sitter.Node, source []byte, out *schemas.CodeStructure) {
	jsparser.Walk(root, func(n *sitter.Node) bool {
		switch {
		case functionNodeTypes[n.Type()]:
			// Class methods are collected by the class sub-walk.
			if parent := n.Parent(); parent != nil && parent.Type() == "method_definition" {
				return true
			}
			out.Functions = append(out.Functions, extractFunction(n, source))
		case n.Type() == "class_declaration":
			if isTopLevel(n) {
				out.Classes = append(out.Classes, extractClass(n, source))
			}
			return false
		}
		return true
	})
}

func extractFunction(n *sitter.Node, source []byte) schemas.FunctionInfo {
	return schemas.FunctionInfo{
		Name:       resolveFunctionName(n, source),
		Params:     extractParams(n, source),
		Line:       jsparser.Line(n),
		Column:     jsparser.Column(n),
		Complexity: cyclomaticOf(n, source),
	}
}

// resolveFunctionName applies the naming rule: a declared name wins; an
// expression takes the variable or assignment target it is bound to;
// everything else is "anonymous", or "arrow" for arrow functions.
func resolveFunctionName(n *sitter.Node, source []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return jsparser.Content(name, source)
	}
	if parent := n.Parent(); parent != nil {
		switch parent.Type() {
		case "variable_declarator":
			if name := parent.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				return jsparser.Content(name, source)
			}
		case "assignment_expression":
			if left := parent.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				return jsparser.Content(left, source)
			}
		}
	}
	if n.Type() == "arrow_function" {
		return "arrow"
	}
	return "anonymous"
}

// extractParams records each simple identifier parameter by name; any other
// pattern (destructuring, rest, defaults, typed) becomes "unknown".
func extractParams(n *sitter.Node, source []byte) []string {
	params := []string{}

	// Single bare-identifier arrow parameter has its own field.
	if single := n.ChildByFieldName("parameter"); single != nil {
		return append(params, paramName(single, source))
	}

	list := n.ChildByFieldName("parameters")
	if list == nil {
		return params
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		params = append(params, paramName(list.NamedChild(i), source))
	}
	return params
}

func paramName(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case "identifier":
		return jsparser.Content(n, source)
	case "required_parameter", "optional_parameter":
		// tsx wraps the pattern; unwrap one level.
		if pattern := n.ChildByFieldName("pattern"); pattern != nil && pattern.Type() == "identifier" {
			return jsparser.Content(pattern, source)
		}
	}
	return "unknown"
}

// cyclomaticOf computes a function's cyclomatic complexity: 1 plus one per
// decision point, without descending into nested functions.
func cyclomaticOf(fn *sitter.Node, source []byte) int {
	complexity := 1
	jsparser.Walk(fn, func(n *sitter.Node) bool {
		if n != fn && functionNodeTypes[n.Type()] {
			return false
		}
		switch {
		case decisionNodeTypes[n.Type()]:
			complexity++
		case n.Type() == "binary_expression":
			op := jsparser.Content(n.ChildByFieldName("operator"), source)
			if op == "&&" || op == "||" {
				complexity++
			}
		}
		return true
	})
	return complexity
}

func isTopLevel(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	if parent.Type() == "program" {
		return true
	}
	// export class Foo { } keeps the class one level down.
	if parent.Type() == "export_statement" {
		grand := parent.Parent()
		return grand == nil || grand.Type() == "program"
	}
	return false
}

func extractClass(n *sitter.Node, source []byte) schemas.ClassInfo {
	info := schemas.ClassInfo{
		Name:       jsparser.Content(n.ChildByFieldName("name"), source),
		Line:       jsparser.Line(n),
		Methods:    []schemas.FunctionInfo{},
		Properties: []string{},
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return info
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			info.Methods = append(info.Methods, schemas.FunctionInfo{
				Name:       jsparser.Content(member.ChildByFieldName("name"), source),
				Params:     extractParams(member, source),
				Line:       jsparser.Line(member),
				Complexity: 1,
			})
		case "field_definition", "public_field_definition":
			if prop := member.ChildByFieldName("property"); prop != nil && prop.Type() == "property_identifier" {
				info.Properties = append(info.Properties, jsparser.Content(prop, source))
			}
		}
	}
	return info
}

// -- Walk 2: module edges --

func collectModuleEdges(root *sitter.Node, source []byte) *schemas.ModuleInfo {
	module := &schemas.ModuleInfo{Imports: []string{}, Exports: []string{}}

	jsparser.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				module.Imports = append(module.Imports, stripQuotes(jsparser.Content(src, source)))
			}
			return false
		case "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				module.Exports = append(module.Exports, stripQuotes(jsparser.Content(src, source)))
			} else if hasDefaultKeyword(n) {
				module.Exports = append(module.Exports, "default")
			}
			// Keep descending so exported declarations are still extracted
			// by the other walks.
		}
		return true
	})

	if len(module.Imports) == 0 && len(module.Exports) == 0 {
		return nil
	}
	return module
}

func hasDefaultKeyword(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// -- Walk 3: call graph --

// buildCallGraph records an edge whenever a call's callee name textually
// matches an extracted function. Matching ignores scope, so shadowed names
// can over-link; that approximation is deliberate and documented.
func buildCallGraph(root *sitter.Node, source []byte, functions []schemas.FunctionInfo) schemas.CallGraph {
	graph := schemas.CallGraph{
		Nodes: []schemas.CallGraphNode{},
		Edges: []schemas.CallGraphEdge{},
	}

	known := make(map[string]bool, len(functions))
	for _, fn := range functions {
		if !known[fn.Name] {
			known[fn.Name] = true
			graph.Nodes = append(graph.Nodes, schemas.CallGraphNode{ID: fn.Name})
		}
	}

	seen := map[[2]string]bool{}
	collectEdges(root, source, "", known, seen, &graph.Edges)
	return graph
}

func collectEdges(n *sitter.Node, source []byte, current string, known map[string]bool, seen map[[2]string]bool, edges *[]schemas.CallGraphEdge) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			current = jsparser.Content(name, source)
		}
	case "variable_declarator":
		// const f = () => {...} re-homes calls inside the body to f.
		value := n.ChildByFieldName("value")
		name := n.ChildByFieldName("name")
		if value != nil && name != nil && functionNodeTypes[value.Type()] && name.Type() == "identifier" {
			current = jsparser.Content(name, source)
		}
	case "call_expression":
		if callee := calleeName(n.ChildByFieldName("function"), source); callee != "" && current != "" && known[callee] {
			key := [2]string{current, callee}
			if !seen[key] {
				seen[key] = true
				*edges = append(*edges, schemas.CallGraphEdge{From: current, To: callee})
			}
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectEdges(n.NamedChild(i), source, current, known, seen, edges)
	}
}

func calleeName(callee *sitter.Node, source []byte) string {
	if callee == nil {
		return ""
	}
	switch callee.Type() {
	case "identifier":
		return jsparser.Content(callee, source)
	case "member_expression":
		return jsparser.Content(callee.ChildByFieldName("property"), source)
	}
	return ""
}
