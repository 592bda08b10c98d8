// File: internal/analysis/core/definitions.go
package core

import (
	"strings"

	"github.com/xkilldash9x/scriptlens/api/schemas"
)

// -- Taint Source Registries --

// knownPropertySources maps flattened property-access paths to source kinds.
// Untrusted URL fragments count as direct user input; cookie and storage
// reads are grouped under storage.
var knownPropertySources = map[string]schemas.TaintSourceKind{
	"location.href":     schemas.SourceKindUserInput,
	"location.search":   schemas.SourceKindUserInput,
	"location.hash":     schemas.SourceKindUserInput,
	"location.pathname": schemas.SourceKindUserInput,
	"document.cookie":   schemas.SourceKindStorage,
	"document.referrer": schemas.SourceKindUserInput,
	"window.name":       schemas.SourceKindOther,
	"event.data":        schemas.SourceKindUserInput,
	"message.data":      schemas.SourceKindUserInput,
}

// knownFunctionSources maps flattened call paths to source kinds for sources
// that are read via a function call.
var knownFunctionSources = map[string]schemas.TaintSourceKind{
	"localStorage.getItem":   schemas.SourceKindStorage,
	"sessionStorage.getItem": schemas.SourceKindStorage,
}

// networkCallNames marks call names whose return value is network data.
// Matching is by terminal name so both bare calls ("fetch(...)") and client
// methods ("axios.get(...)", "$.ajax(...)") are caught.
var networkCallNames = map[string]bool{
	"fetch":   true,
	"ajax":    true,
	"get":     true,
	"post":    true,
	"request": true,
	"axios":   true,
}

// domQueryCallNames marks DOM lookups whose results carry user-controlled
// content (form values, attribute text).
var domQueryCallNames = map[string]bool{
	"querySelector":          true,
	"querySelectorAll":       true,
	"getElementById":         true,
	"getElementsByName":      true,
	"getElementsByClassName": true,
}

// CheckIfPropertySource reports whether a property access path is a
// recognized taint source. Leading "window." is ignored.
func CheckIfPropertySource(path []string) (schemas.TaintSourceKind, string, bool) {
	joined := normalizePath(path)
	if joined == "" {
		return "", "", false
	}
	if kind, ok := knownPropertySources[joined]; ok {
		return kind, joined, true
	}
	// window.name needs the prefix to mean anything, so probe the raw
	// join as well.
	raw := strings.Join(path, ".")
	if kind, ok := knownPropertySources[raw]; ok {
		return kind, raw, true
	}
	return "", "", false
}

// CheckIfFunctionSource reports whether a call path is a recognized taint
// source, covering storage reads, network clients, and DOM queries.
func CheckIfFunctionSource(path []string) (schemas.TaintSourceKind, string, bool) {
	joined := normalizePath(path)
	if joined == "" {
		return "", "", false
	}
	if kind, ok := knownFunctionSources[joined]; ok {
		return kind, joined, true
	}
	terminal := path[len(path)-1]
	if networkCallNames[terminal] {
		return schemas.SourceKindNetwork, strings.Join(path, "."), true
	}
	if domQueryCallNames[terminal] {
		return schemas.SourceKindUserInput, strings.Join(path, "."), true
	}
	return "", "", false
}

func normalizePath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	trimmed := path
	if len(trimmed) > 1 && trimmed[0] == "window" {
		trimmed = trimmed[1:]
	}
	return strings.Join(trimmed, ".")
}

// -- Taint Sink Registries --

// SinkDefinition describes one dangerous call target.
type SinkDefinition struct {
	// Name is the terminal identifier matched against a callee.
	Name string
	Kind schemas.TaintSinkKind
}

// callSinks maps terminal callee names to sink kinds.
var callSinks = map[string]schemas.TaintSinkKind{
	// Execution sinks
	"eval":        schemas.SinkKindEval,
	"Function":    schemas.SinkKindEval,
	"setTimeout":  schemas.SinkKindEval,
	"setInterval": schemas.SinkKindEval,
	// HTML rendering sinks
	"write":   schemas.SinkKindXSS,
	"writeln": schemas.SinkKindXSS,
	// Query execution sinks
	"query":   schemas.SinkKindSQLInjection,
	"execute": schemas.SinkKindSQLInjection,
	// Process / filesystem sinks
	"exec":          schemas.SinkKindOther,
	"execSync":      schemas.SinkKindOther,
	"spawn":         schemas.SinkKindOther,
	"readFile":      schemas.SinkKindOther,
	"readFileSync":  schemas.SinkKindOther,
	"writeFile":     schemas.SinkKindOther,
	"writeFileSync": schemas.SinkKindOther,
}

// assignmentSinkProperties marks member-assignment targets that render HTML.
var assignmentSinkProperties = map[string]bool{
	"innerHTML": true,
	"outerHTML": true,
}

// CheckIfCallSink reports whether a call path targets a known sink.
// document.write/writeln only count when called on document; the bare names
// are too common to match alone.
func CheckIfCallSink(path []string) (schemas.TaintSinkKind, string, bool) {
	if len(path) == 0 {
		return "", "", false
	}
	terminal := path[len(path)-1]
	kind, ok := callSinks[terminal]
	if !ok {
		return "", "", false
	}
	if terminal == "write" || terminal == "writeln" {
		if len(path) < 2 || path[len(path)-2] != "document" {
			return "", "", false
		}
	}
	return kind, strings.Join(path, "."), true
}

// CheckIfAssignmentSink reports whether an assignment target property is a
// known HTML-rendering sink.
func CheckIfAssignmentSink(property string) (schemas.TaintSinkKind, bool) {
	if assignmentSinkProperties[property] {
		return schemas.SinkKindXSS, true
	}
	return "", false
}

// -- Sanitizer Registry --

// knownSanitizers lists calls that neutralize taint when a tainted value
// passes through them.
var knownSanitizers = map[string]bool{
	"encodeURI":          true,
	"encodeURIComponent": true,
	"decodeURI":          true,
	"decodeURIComponent": true,
	"escapeHtml":         true,
	"escape":             true,
	"sanitize":           true,
	"createHmac":         true,
	"createHash":         true,
	"sign":               true,
	"btoa":               true,
	"atob":               true,
	"stringify":          true, // JSON.stringify
	"parse":              true, // JSON.parse
	"parseInt":           true,
	"parseFloat":         true,
	"Number":             true,
	"String":             false, // a plain cast keeps the payload intact
	"prepare":            true,  // parameterized query helpers
	"slice":              true,
	"substring":          true,
	"replace":            true,
	"split":              true,
	"join":               true,
	"map":                true,
	"filter":             true,
}

// CheckIfSanitizer reports whether a call path matches a known sanitizer,
// checking the full dotted path first and the terminal name as fallback.
func CheckIfSanitizer(path []string) bool {
	if len(path) == 0 {
		return false
	}
	if knownSanitizers[strings.Join(path, ".")] {
		return true
	}
	return knownSanitizers[path[len(path)-1]]
}
