// File: internal/analysis/jsparser/parser.go

// Package jsparser turns raw script text into a tree-sitter syntax tree.
// Parsing is fail-soft: a file the grammar cannot make sense of yields an
// empty ParseResult, never an error that would abort the pipeline.
package jsparser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"go.uber.org/zap"
)

// ParseResult owns a parsed tree and the source bytes it was built from.
// Tree is nil when the source was empty or unparseable; every consumer must
// tolerate that and produce default results.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	// Grammar records which grammar produced the tree ("javascript" or
	// "tsx").
	Grammar string
}

// Root returns the root node, or nil for an empty result.
func (r *ParseResult) Root() *sitter.Node {
	if r == nil || r.Tree == nil {
		return nil
	}
	return r.Tree.RootNode()
}

// Close releases the underlying tree. Safe on an empty result.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
	}
}

// typedSyntaxHints are substrings that suggest the source carries static
// typing the plain JavaScript grammar chokes on.
var typedSyntaxHints = []string{
	": string", ": number", ": boolean", ": void", ": any",
	"interface ", "satisfies ", "as const", "implements ",
	"readonly ", "<T>(", "enum ",
}

// Parse builds a syntax tree from source. The JavaScript grammar (which
// also handles JSX) is tried first; when it reports errors and the source
// smells of static typing, the TSX grammar gets a shot and whichever tree
// carries fewer error nodes wins.
func Parse(ctx context.Context, source []byte, logger *zap.Logger) *ParseResult {
	log := logger.Named("jsparser")
	if len(source) == 0 {
		log.Debug("Empty source, returning empty parse result.")
		return &ParseResult{Source: source}
	}

	jsTree, err := parseWith(ctx, javascript.GetLanguage(), source)
	if err != nil {
		log.Warn("JavaScript parse failed, degrading to empty result.", zap.Error(err))
		return &ParseResult{Source: source}
	}

	jsErrors := countErrorNodes(jsTree.RootNode())
	if jsErrors == 0 || !looksTyped(source) {
		if jsErrors > 0 {
			log.Debug("Parse tree contains error nodes.", zap.Int("error_nodes", jsErrors))
		}
		return &ParseResult{Tree: jsTree, Source: source, Grammar: "javascript"}
	}

	tsxTree, err := parseWith(ctx, tsx.GetLanguage(), source)
	if err != nil {
		return &ParseResult{Tree: jsTree, Source: source, Grammar: "javascript"}
	}

	tsxErrors := countErrorNodes(tsxTree.RootNode())
	if tsxErrors < jsErrors {
		log.Debug("TSX grammar produced a cleaner tree.",
			zap.Int("js_errors", jsErrors),
			zap.Int("tsx_errors", tsxErrors))
		jsTree.Close()
		return &ParseResult{Tree: tsxTree, Source: source, Grammar: "tsx"}
	}
	tsxTree.Close()
	return &ParseResult{Tree: jsTree, Source: source, Grammar: "javascript"}
}

func parseWith(ctx context.Context, lang *sitter.Language, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)
	return parser.ParseCtx(ctx, nil, source)
}

func looksTyped(source []byte) bool {
	text := string(source)
	for _, hint := range typedSyntaxHints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

func countErrorNodes(root *sitter.Node) int {
	if root == nil || !root.HasError() {
		return 0
	}
	count := 0
	Walk(root, func(n *sitter.Node) bool {
		if n.IsError() {
			count++
		}
		return true
	})
	return count
}
