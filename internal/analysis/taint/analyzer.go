// File: internal/analysis/taint/analyzer.go

// Package taint traces untrusted data from browser-facing sources to
// dangerous sinks in two passes over one parsed script.
package taint

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/core"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
)

type tracker struct {
	source  []byte
	tainted map[string]schemas.TaintSourceInfo

	sources []schemas.TaintSourceInfo
	sinks   []schemas.TaintSinkInfo
	paths   []schemas.TaintPath

	seenSources map[string]struct{}
	seenSinks   map[string]struct{}
	seenPaths   map[[2]int]struct{}
}

// Analyze runs source and sink collection with direct-flow detection, then
// a propagation pass that follows assignments through intermediate
// variables and re-checks HTML-rendering assignments. Sanitizer calls
// interrupt propagation.
func Analyze(parsed *jsparser.ParseResult, logger *zap.Logger) schemas.DataFlowAnalysis {
	log := logger.Named("taint_analyzer")
	t := &tracker{
		source:      parsed.Source,
		tainted:     map[string]schemas.TaintSourceInfo{},
		sources:     []schemas.TaintSourceInfo{},
		sinks:       []schemas.TaintSinkInfo{},
		paths:       []schemas.TaintPath{},
		seenSources: map[string]struct{}{},
		seenSinks:   map[string]struct{}{},
		seenPaths:   map[[2]int]struct{}{},
	}

	root := parsed.Root()
	if root == nil {
		return t.result()
	}

	t.collectionPass(root)
	t.propagationPass(root)

	log.Debug("Taint analysis complete.",
		zap.Int("sources", len(t.sources)),
		zap.Int("sinks", len(t.sinks)),
		zap.Int("paths", len(t.paths)))
	return t.result()
}

func (t *tracker) result() schemas.DataFlowAnalysis {
	return schemas.DataFlowAnalysis{
		Sources:    t.sources,
		Sinks:      t.sinks,
		TaintPaths: t.paths,
	}
}

// collectionPass walks the tree in document order seeding the taint map
// from declarations whose initializer is a recognized source, recording
// every source and sink occurrence, and flagging direct flows where a
// tainted value reaches a sink without intermediaries.
func (t *tracker) collectionPass(root *sitter.Node) {
	jsparser.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "variable_declarator":
			t.seedDeclaration(n)
		case "call_expression":
			t.inspectCall(n)
		case "assignment_expression":
			t.inspectAssignment(n, false)
		}
		return true
	})
}

// propagationPass follows taint through intermediate variables. Only
// HTML-rendering assignments are re-checked here; call sinks were already
// judged against the seeded map during collection.
func (t *tracker) propagationPass(root *sitter.Node) {
	jsparser.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "variable_declarator":
			t.propagateDeclaration(n)
		case "assignment_expression":
			t.inspectAssignment(n, true)
		}
		return true
	})
}

func (t *tracker) seedDeclaration(declarator *sitter.Node) {
	name := declarator.ChildByFieldName("name")
	value := unwrap(declarator.ChildByFieldName("value"))
	if name == nil || name.Type() != "identifier" || value == nil {
		return
	}

	if src, ok := t.sourceOf(value); ok {
		t.addSource(src)
		t.tainted[jsparser.Content(name, t.source)] = src
		return
	}
	// Rebinding to something the collection pass cannot classify clears
	// the variable; the propagation pass decides whether taint survives.
	delete(t.tainted, jsparser.Content(name, t.source))
}

// sourceOf recognizes an expression that reads directly from a taint
// source: a known property access or a known source call.
func (t *tracker) sourceOf(expr *sitter.Node) (schemas.TaintSourceInfo, bool) {
	switch expr.Type() {
	case "member_expression", "subscript_expression":
		path := jsparser.FlattenPropertyAccess(expr, t.source)
		if kind, sourceName, ok := core.CheckIfPropertySource(path); ok {
			return schemas.TaintSourceInfo{Kind: kind, Name: sourceName, Line: jsparser.Line(expr)}, true
		}
	case "call_expression":
		callee := expr.ChildByFieldName("function")
		if callee == nil {
			break
		}
		path := jsparser.FlattenPropertyAccess(callee, t.source)
		if kind, sourceName, ok := core.CheckIfFunctionSource(path); ok {
			return schemas.TaintSourceInfo{Kind: kind, Name: sourceName, Line: jsparser.Line(expr)}, true
		}
	}
	return schemas.TaintSourceInfo{}, false
}

func (t *tracker) inspectCall(call *sitter.Node) {
	callee := call.ChildByFieldName("function")
	if callee == nil {
		return
	}
	path := jsparser.FlattenPropertyAccess(callee, t.source)

	// A source call is recorded even when its result is never bound.
	if kind, sourceName, ok := core.CheckIfFunctionSource(path); ok {
		t.addSource(schemas.TaintSourceInfo{Kind: kind, Name: sourceName, Line: jsparser.Line(call)})
	}

	kind, sinkName, ok := core.CheckIfCallSink(path)
	if !ok {
		return
	}
	sink := schemas.TaintSinkInfo{Kind: kind, Name: sinkName, Line: jsparser.Line(call)}
	t.addSink(sink)

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := unwrap(args.NamedChild(i))
		if src, ok := t.taintBehind(arg); ok {
			t.addPath(src, sink)
		}
	}
}

// inspectAssignment handles both roles of an assignment: a plain
// identifier target participates in taint bookkeeping, and an
// innerHTML/outerHTML target is an XSS sink.
func (t *tracker) inspectAssignment(assign *sitter.Node, propagate bool) {
	left := assign.ChildByFieldName("left")
	right := unwrap(assign.ChildByFieldName("right"))
	if left == nil || right == nil {
		return
	}

	switch left.Type() {
	case "identifier":
		name := jsparser.Content(left, t.source)
		if propagate {
			t.bind(name, right)
		} else if src, ok := t.sourceOf(right); ok {
			t.addSource(src)
			t.tainted[name] = src
		} else {
			delete(t.tainted, name)
		}
	case "member_expression":
		property := left.ChildByFieldName("property")
		if property == nil {
			return
		}
		kind, ok := core.CheckIfAssignmentSink(jsparser.Content(property, t.source))
		if !ok {
			return
		}
		sinkName := joinPath(jsparser.FlattenPropertyAccess(left, t.source))
		sink := schemas.TaintSinkInfo{Kind: kind, Name: sinkName, Line: jsparser.Line(assign)}
		if !propagate {
			t.addSink(sink)
		}
		if src, ok := t.taintBehind(right); ok {
			t.addPath(src, sink)
		}
	}
}

func (t *tracker) propagateDeclaration(declarator *sitter.Node) {
	name := declarator.ChildByFieldName("name")
	value := unwrap(declarator.ChildByFieldName("value"))
	if name == nil || name.Type() != "identifier" || value == nil {
		return
	}
	t.bind(jsparser.Content(name, t.source), value)
}

// bind updates the taint map for one variable binding. A clean right side
// clears any prior taint: reassignment is an overwrite, not a merge.
func (t *tracker) bind(name string, value *sitter.Node) {
	if src, ok := t.taintBehind(value); ok {
		t.tainted[name] = src
		return
	}
	delete(t.tainted, name)
}

// taintBehind reports the source standing behind an expression, following
// identifiers through the taint map, both operands of binary expressions,
// template substitutions, ternary arms, and the first argument of unknown
// calls. A recognized sanitizer call stops the trace.
func (t *tracker) taintBehind(expr *sitter.Node) (schemas.TaintSourceInfo, bool) {
	if expr == nil {
		return schemas.TaintSourceInfo{}, false
	}
	expr = unwrap(expr)

	if src, ok := t.sourceOf(expr); ok {
		return src, true
	}

	switch expr.Type() {
	case "identifier":
		src, ok := t.tainted[jsparser.Content(expr, t.source)]
		return src, ok
	case "binary_expression":
		if src, ok := t.taintBehind(expr.ChildByFieldName("left")); ok {
			return src, true
		}
		return t.taintBehind(expr.ChildByFieldName("right"))
	case "ternary_expression":
		if src, ok := t.taintBehind(expr.ChildByFieldName("consequence")); ok {
			return src, true
		}
		return t.taintBehind(expr.ChildByFieldName("alternative"))
	case "template_string":
		for i := 0; i < int(expr.NamedChildCount()); i++ {
			child := expr.NamedChild(i)
			if child.Type() != "template_substitution" {
				continue
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if src, ok := t.taintBehind(child.NamedChild(j)); ok {
					return src, true
				}
			}
		}
	case "call_expression":
		callee := expr.ChildByFieldName("function")
		if callee == nil {
			break
		}
		path := jsparser.FlattenPropertyAccess(callee, t.source)
		if core.CheckIfSanitizer(path) {
			return schemas.TaintSourceInfo{}, false
		}
		args := expr.ChildByFieldName("arguments")
		if args != nil && args.NamedChildCount() > 0 {
			return t.taintBehind(args.NamedChild(0))
		}
		// Method call on a tainted receiver keeps the taint.
		if callee.Type() == "member_expression" {
			return t.taintBehind(callee.ChildByFieldName("object"))
		}
	case "member_expression", "subscript_expression":
		return t.taintBehind(expr.ChildByFieldName("object"))
	}
	return schemas.TaintSourceInfo{}, false
}

func (t *tracker) addSource(src schemas.TaintSourceInfo) {
	key := src.Name + "#" + strconv.Itoa(src.Line)
	if _, ok := t.seenSources[key]; ok {
		return
	}
	t.seenSources[key] = struct{}{}
	t.sources = append(t.sources, src)
}

func (t *tracker) addSink(sink schemas.TaintSinkInfo) {
	key := sink.Name + "#" + strconv.Itoa(sink.Line)
	if _, ok := t.seenSinks[key]; ok {
		return
	}
	t.seenSinks[key] = struct{}{}
	t.sinks = append(t.sinks, sink)
}

// addPath records a flow, deduplicated on the (source line, sink line)
// pair so the two passes never double-report. The source is registered
// too: an inline source expression (eval(location.hash)) reaches here
// without passing through a declaration.
func (t *tracker) addPath(src schemas.TaintSourceInfo, sink schemas.TaintSinkInfo) {
	t.addSource(src)
	key := [2]int{src.Line, sink.Line}
	if _, ok := t.seenPaths[key]; ok {
		return
	}
	t.seenPaths[key] = struct{}{}
	t.paths = append(t.paths, schemas.TaintPath{
		Source: src,
		Sink:   sink,
		Trail:  []int{src.Line, sink.Line},
	})
}

// unwrap strips await and parenthesized wrappers.
func unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "await_expression", "parenthesized_expression":
			if n.NamedChildCount() == 0 {
				return n
			}
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return n
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
