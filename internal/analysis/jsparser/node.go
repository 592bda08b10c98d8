// File: internal/analysis/jsparser/node.go
package jsparser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk performs a depth-first traversal over named nodes. The visitor
// returns false to skip a node's subtree.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		Walk(node.NamedChild(i), visit)
	}
}

// Content returns the source text a node spans. Nil-safe.
func Content(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(source)
}

// Line returns the 1-based start line of a node.
func Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

// Column returns the 0-based start column of a node.
func Column(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Column)
}

// LineCount returns how many source lines a node spans, inclusive.
func LineCount(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1
}

// FlattenPropertyAccess converts a member/subscript access chain into its
// dotted path segments, e.g. window.location["search"] into
// ["window", "location", "search"]. Computed non-literal indices and any
// other unflattenable shape yield nil.
func FlattenPropertyAccess(node *sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier", "property_identifier", "this":
		return []string{Content(node, source)}
	case "member_expression":
		object := FlattenPropertyAccess(node.ChildByFieldName("object"), source)
		if object == nil {
			return nil
		}
		property := node.ChildByFieldName("property")
		if property == nil {
			return nil
		}
		return append(object, Content(property, source))
	case "subscript_expression":
		object := FlattenPropertyAccess(node.ChildByFieldName("object"), source)
		if object == nil {
			return nil
		}
		index := node.ChildByFieldName("index")
		if index == nil || index.Type() != "string" {
			return nil
		}
		return append(object, stripQuotes(Content(index, source)))
	case "call_expression":
		// fetch(...).then style chains flatten through the callee so
		// "response.json" resolves even behind a call.
		return FlattenPropertyAccess(node.ChildByFieldName("function"), source)
	default:
		return nil
	}
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
