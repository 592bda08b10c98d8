// File: internal/analysis/patterns/duplicates.go
package patterns

import (
	"strconv"
	"strings"

	"github.com/minio/highwayhash"
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
	"github.com/xkilldash9x/scriptlens/internal/analysis/jsparser"
	"github.com/xkilldash9x/scriptlens/internal/config"
)

// hashKey seeds the structural hash. Fixed so hashes are stable across runs.
var hashKey = []byte("scriptlens-duplicate-hash-key-01")

// reservedIdentifiers are global names left untouched by normalization;
// renaming them would make unrelated bodies look alike.
var reservedIdentifiers = map[string]bool{
	"window": true, "document": true, "console": true, "Math": true,
	"JSON": true, "Object": true, "Array": true, "String": true,
	"Number": true, "Boolean": true, "Promise": true, "Symbol": true,
	"Error": true, "Date": true, "RegExp": true, "Map": true, "Set": true,
	"undefined": true, "null": true, "this": true, "arguments": true,
}

var candidateNodeTypes = map[string]bool{
	"function_declaration": true,
	"function":             true,
	"function_expression":  true,
	"arrow_function":       true,
	"method_definition":    true,
}

type candidate struct {
	name       string
	line       int
	rawHash    uint64
	normalized string
}

// detectDuplicates gathers every function-shaped body, hashes the raw text
// for exact matches, and compares normalized serializations for near
// matches. Every unordered pair is compared once.
func detectDuplicates(root *sitter.Node, source []byte, cfg config.AnalysisConfig, logger *zap.Logger) []schemas.DuplicateFinding {
	candidates := collectCandidates(root, source)
	findings := []schemas.DuplicateFinding{}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]

			if a.rawHash == b.rawHash {
				findings = append(findings, schemas.DuplicateFinding{
					First:      schemas.DuplicateBlock{Name: a.name, Line: a.line},
					Second:     schemas.DuplicateBlock{Name: b.name, Line: b.line},
					Exact:      true,
					Similarity: 1.0,
				})
				continue
			}

			if !lengthsComparable(len(a.normalized), len(b.normalized), cfg.DuplicateLengthSkew) {
				continue
			}
			sim := similarity(a.normalized, b.normalized)
			if sim >= cfg.DuplicateSimilarity {
				findings = append(findings, schemas.DuplicateFinding{
					First:      schemas.DuplicateBlock{Name: a.name, Line: a.line},
					Second:     schemas.DuplicateBlock{Name: b.name, Line: b.line},
					Similarity: sim,
				})
			}
		}
	}

	if len(findings) > 0 {
		logger.Debug("Duplicate candidates compared.",
			zap.Int("candidates", len(candidates)),
			zap.Int("findings", len(findings)))
	}
	return findings
}

func collectCandidates(root *sitter.Node, source []byte) []candidate {
	var out []candidate
	jsparser.Walk(root, func(n *sitter.Node) bool {
		if !candidateNodeTypes[n.Type()] {
			return true
		}
		raw := jsparser.Content(n, source)
		out = append(out, candidate{
			name:       candidateName(n, source),
			line:       jsparser.Line(n),
			rawHash:    highwayhash.Sum64([]byte(raw), hashKey),
			normalized: normalize(n, source),
		})
		return true
	})
	return out
}

func candidateName(n *sitter.Node, source []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return jsparser.Content(name, source)
	}
	if parent := n.Parent(); parent != nil && parent.Type() == "variable_declarator" {
		if name := parent.ChildByFieldName("name"); name != nil {
			return jsparser.Content(name, source)
		}
	}
	if n.Type() == "arrow_function" {
		return "arrow"
	}
	return "anonymous"
}

// normalize serializes a subtree with identifiers renamed positionally
// (VAR_0, VAR_1, ... in first-seen order), string literals collapsed to one
// placeholder, and numeric literals collapsed to zero. Locations and
// comments drop out because only named nodes are serialized.
func normalize(n *sitter.Node, source []byte) string {
	var sb strings.Builder
	names := map[string]string{}
	serialize(n, source, names, &sb)
	return sb.String()
}

func serialize(n *sitter.Node, source []byte, names map[string]string, sb *strings.Builder) {
	switch n.Type() {
	case "identifier", "property_identifier", "shorthand_property_identifier":
		ident := jsparser.Content(n, source)
		if reservedIdentifiers[ident] {
			sb.WriteString(ident)
			return
		}
		mapped, ok := names[ident]
		if !ok {
			mapped = "VAR_" + strconv.Itoa(len(names))
			names[ident] = mapped
		}
		sb.WriteString(mapped)
		return
	case "string", "template_string":
		sb.WriteString("STR")
		return
	case "number":
		sb.WriteString("0")
		return
	}

	// Every function shape serializes the same way, and its own name does
	// not participate: a renamed declaration and an equivalent expression
	// normalize identically.
	skipName := (*sitter.Node)(nil)
	if candidateNodeTypes[n.Type()] {
		sb.WriteString("fn")
		skipName = n.ChildByFieldName("name")
	} else {
		sb.WriteString(n.Type())
	}
	if n.NamedChildCount() == 0 {
		return
	}
	sb.WriteByte('(')
	wrote := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if skipName != nil && child.StartByte() == skipName.StartByte() {
			continue
		}
		if wrote {
			sb.WriteByte(',')
		}
		serialize(child, source, names, sb)
		wrote = true
	}
	sb.WriteByte(')')
}

// lengthsComparable is the cheap pre-filter: similarity is only worth
// computing when lengths differ by at most maxSkew relative to the longer.
func lengthsComparable(a, b int, maxSkew float64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	longer, shorter := a, b
	if b > a {
		longer, shorter = b, a
	}
	return float64(longer-shorter)/float64(longer) <= maxSkew
}

// similarity is 1 minus the normalized Levenshtein distance. Symmetric by
// construction; identical inputs score 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
