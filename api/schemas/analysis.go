// File: api/schemas/analysis.go
package schemas

// -- Analysis Input --

// FocusArea hints which aspect of a script the caller cares most about.
// Components may use it to bias reporting; none require it.
type FocusArea string

const (
	FocusSecurity    FocusArea = "security"
	FocusQuality     FocusArea = "quality"
	FocusObfuscation FocusArea = "obfuscation"
	FocusAll         FocusArea = "all"
)

// SourceUnit is the input to one analysis call: the raw text of a single
// script plus optional caller hints. It is immutable for the lifetime of
// the call.
type SourceUnit struct {
	// Name identifies the script for reporting (a URL, a filename, or a
	// synthetic label). Never used for resolution.
	Name string `json:"name"`
	// Source is the raw script text.
	Source string `json:"source"`
	// Focus is an optional emphasis hint.
	Focus FocusArea `json:"focus,omitempty"`
	// Context is opaque caller-supplied data, merged verbatim into the
	// output. The pipeline never inspects it.
	Context map[string]interface{} `json:"context,omitempty"`
}

// -- Structural Extraction --

// FunctionInfo describes one extracted function.
type FunctionInfo struct {
	// Name is the declared or inferred name, or "anonymous"/"arrow" when
	// the function has neither.
	Name string `json:"name"`
	// Params holds parameter names in order; non-identifier patterns are
	// recorded as the literal string "unknown".
	Params []string `json:"params"`
	Line   int      `json:"line"`
	Column int      `json:"column,omitempty"`
	// Complexity is the function's cyclomatic complexity, always >= 1.
	Complexity int `json:"complexity"`
}

// ClassInfo describes one top-level class declaration.
type ClassInfo struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	// Methods are listed in declaration order with complexity fixed at 1.
	Methods []FunctionInfo `json:"methods"`
	// Properties holds simple identifier-named field declarations only.
	Properties []string `json:"properties"`
}

// ModuleInfo records the import/export surface of the file. It is nil in
// the output when the file has neither imports nor exports.
type ModuleInfo struct {
	Imports []string `json:"imports"`
	Exports []string `json:"exports"`
}

// CallGraphNode is one function participating in the intra-file call graph.
type CallGraphNode struct {
	ID string `json:"id"`
}

// CallGraphEdge records that the function named From textually calls a
// function whose name matches To. Matching is by name only, not scope, so
// shadowed names can over-link; this approximation is part of the contract.
type CallGraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CallGraph is the single-file call approximation built by the extractor.
type CallGraph struct {
	Nodes []CallGraphNode `json:"nodes"`
	Edges []CallGraphEdge `json:"edges"`
}

// CodeStructure aggregates everything the structural extractor produces.
type CodeStructure struct {
	Functions []FunctionInfo `json:"functions"`
	Classes   []ClassInfo    `json:"classes"`
	Module    *ModuleInfo    `json:"module,omitempty"`
	CallGraph CallGraph      `json:"callGraph"`
}

// -- Complexity --

// HalsteadMetrics holds the operator/operand counts and derived measures.
type HalsteadMetrics struct {
	DistinctOperators int     `json:"distinctOperators"`
	TotalOperators    int     `json:"totalOperators"`
	DistinctOperands  int     `json:"distinctOperands"`
	TotalOperands     int     `json:"totalOperands"`
	Vocabulary        int     `json:"vocabulary"`
	Length            int     `json:"length"`
	Volume            float64 `json:"volume"`
	Difficulty        float64 `json:"difficulty"`
	Effort            float64 `json:"effort"`
}

// ComplexityMetrics is the per-file complexity report.
type ComplexityMetrics struct {
	Cyclomatic      int             `json:"cyclomatic"`
	Cognitive       int             `json:"cognitive"`
	Halstead        HalsteadMetrics `json:"halstead"`
	Maintainability float64         `json:"maintainability"`
	LinesOfCode     int             `json:"linesOfCode"`
}

// -- Patterns --

// Severity grades findings. The ordering is informational; numeric weights
// live with the consumers.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// PatternMatch flags a recognized design pattern. Informational only.
type PatternMatch struct {
	Name        string `json:"name"`
	Line        int    `json:"line"`
	Description string `json:"description"`
}

// AntiPatternFinding flags a structural defect. Severity is fixed per rule.
type AntiPatternFinding struct {
	Name           string   `json:"name"`
	Line           int      `json:"line"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// DuplicateBlock identifies one member of a duplicate cluster.
type DuplicateBlock struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// DuplicateFinding pairs two function bodies judged duplicates, either by
// exact structural hash or by normalized similarity >= the detector's
// threshold.
type DuplicateFinding struct {
	First      DuplicateBlock `json:"first"`
	Second     DuplicateBlock `json:"second"`
	Exact      bool           `json:"exact"`
	Similarity float64        `json:"similarity"`
}

// -- Taint Flow --

// TaintSourceKind classifies where untrusted data enters.
type TaintSourceKind string

const (
	SourceKindNetwork   TaintSourceKind = "network"
	SourceKindUserInput TaintSourceKind = "user_input"
	SourceKindStorage   TaintSourceKind = "storage"
	SourceKindOther     TaintSourceKind = "other"
)

// TaintSinkKind classifies the impact of a dangerous construct.
type TaintSinkKind string

const (
	SinkKindXSS          TaintSinkKind = "xss"
	SinkKindSQLInjection TaintSinkKind = "sql-injection"
	SinkKindEval         TaintSinkKind = "eval"
	SinkKindOther        TaintSinkKind = "other"
)

// TaintSourceInfo is one recognized untrusted entry point.
type TaintSourceInfo struct {
	Kind TaintSourceKind `json:"kind"`
	Name string          `json:"name"`
	Line int             `json:"line"`
}

// TaintSinkInfo is one recognized dangerous call or assignment target.
type TaintSinkInfo struct {
	Kind TaintSinkKind `json:"kind"`
	Name string        `json:"name"`
	Line int           `json:"line"`
}

// TaintPath links exactly one source to one sink through an ordered line
// trail. A path exists only when the traced value never crossed a
// recognized sanitizer.
type TaintPath struct {
	Source TaintSourceInfo `json:"source"`
	Sink   TaintSinkInfo   `json:"sink"`
	Trail  []int           `json:"trail"`
	// Refined marks paths contributed by the optional model collaborator
	// rather than the deterministic passes.
	Refined bool `json:"refined,omitempty"`
}

// DataFlowAnalysis is the taint analyzer's full output.
type DataFlowAnalysis struct {
	Sources    []TaintSourceInfo `json:"sources"`
	Sinks      []TaintSinkInfo   `json:"sinks"`
	TaintPaths []TaintPath       `json:"taintPaths"`
}

// -- Obfuscation --

// ObfuscationTag names one detected obfuscation family.
type ObfuscationTag struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// VMProtectionReport is emitted when the interpreter-loop sub-detector
// confirms a virtualized protection layer.
type VMProtectionReport struct {
	Detected              bool   `json:"detected"`
	EstimatedInstructions int    `json:"estimatedInstructions"`
	Complexity            string `json:"complexity"`
}

// ObfuscationVerdict classifies the script's obfuscation. Tags is never
// empty; when no detector fires it holds the single tag "unknown" at
// confidence 0.5.
type ObfuscationVerdict struct {
	Tags            []ObfuscationTag    `json:"tags"`
	Evidence        []string            `json:"evidence"`
	Recommendations []string            `json:"recommendations"`
	VMProtection    *VMProtectionReport `json:"vmProtection,omitempty"`
}

// -- Security Risks (external collaborator pass-through) --

// SecurityRisk is supplied by the risk-identification collaborator. The
// quality aggregator consumes only the severity.
type SecurityRisk struct {
	Severity    Severity               `json:"severity"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// -- Aggregate Output --

// ScriptAnalysis is the single JSON-serializable result of one pipeline
// invocation.
type ScriptAnalysis struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Focus             FocusArea              `json:"focus,omitempty"`
	Structure         CodeStructure          `json:"structure"`
	TechStack         []string               `json:"techStack"`
	BusinessLogic     map[string]interface{} `json:"businessLogic,omitempty"`
	DataFlow          DataFlowAnalysis       `json:"dataFlow"`
	SecurityRisks     []SecurityRisk         `json:"securityRisks"`
	QualityScore      int                    `json:"qualityScore"`
	CodePatterns      []PatternMatch         `json:"codePatterns"`
	AntiPatterns      []AntiPatternFinding   `json:"antiPatterns"`
	Duplicates        []DuplicateFinding     `json:"duplicates"`
	ComplexityMetrics ComplexityMetrics      `json:"complexityMetrics"`
	Obfuscation       ObfuscationVerdict     `json:"obfuscation"`
	Context           map[string]interface{} `json:"context,omitempty"`
}
