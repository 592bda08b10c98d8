// File: internal/analysis/obfuscation/classifier.go

// Package obfuscation classifies obfuscation families from raw script
// text. Every detector is evaluated independently; firing detectors each
// contribute a tag with a fixed confidence.
package obfuscation

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
)

var (
	hexIdentifierPattern = regexp.MustCompile(`_0x[0-9a-fA-F]{3,}`)

	// while(true){switch(...)} in any minified spelling, including the
	// `while(!![])` alias for true.
	flatteningPattern = regexp.MustCompile(`while\s*\(\s*(?:true|!!\[\]|1)\s*\)\s*\{\s*switch\s*\(`)

	zeroWidthPattern = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}\x{2060}\x{FEFF}]`)

	// The rotation helper of string-array obfuscators shuffles the array
	// with push/shift until a checksum settles.
	stringArrayRotationPattern = regexp.MustCompile(`\[\s*'push'\s*\]\s*\(\s*\w+\s*\[\s*'shift'\s*\]|\.push\s*\(\s*\w+\.shift\s*\(\s*\)\s*\)`)

	deadCodePattern = regexp.MustCompile(`if\s*\(\s*(?:false|0|!1)\s*\)\s*\{`)

	opaquePredicatePattern = regexp.MustCompile(`!!\[\]|!\+\[\]|\[\]\s*\+\s*\[\]`)

	packerPattern = regexp.MustCompile(`eval\s*\(\s*function\s*\(\s*p\s*,\s*a\s*,\s*c\s*,\s*k\s*,\s*e\s*,`)

	evalCallPattern = regexp.MustCompile(`\beval\s*\(`)

	base64LiteralPattern = regexp.MustCompile(`['"][A-Za-z0-9+/]{40,}={0,2}['"]`)

	hexEscapePattern = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)

	unicodeEscapePattern = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)

	urlEncodingPattern = regexp.MustCompile(`(?:%[0-9a-fA-F]{2}){4,}`)

	selfModifyingPattern = regexp.MustCompile(`arguments\.callee|\.constructor\s*\(\s*['"]return|toString\s*=\s*function`)

	fromCharCodePattern = regexp.MustCompile(`String\s*\.\s*fromCharCode\s*\(\s*\d+\s*(?:,\s*\d+\s*){2,}`)

	functionConstructorPattern = regexp.MustCompile(`new\s+Function\s*\(`)

	atobPattern = regexp.MustCompile(`\batob\s*\(`)

	joinedArrayPattern = regexp.MustCompile(`\[\s*['"][^'"]+['"]\s*(?:,\s*['"][^'"]+['"]\s*)+\]\s*[\s\S]{0,40}?\.join\s*\(\s*['"]`)

	computedStringAccessPattern = regexp.MustCompile(`\[\s*['"][a-zA-Z]{1,6}['"]\s*\+\s*['"][a-zA-Z]{1,6}['"]\s*\]`)

	debuggerTrapPattern = regexp.MustCompile(`setInterval\s*\([\s\S]{0,80}?debugger|while\s*\(\s*true\s*\)\s*\{\s*debugger`)

	hexStringArrayPattern = regexp.MustCompile(`var\s+_0x\w+\s*=\s*\[`)

	esotericAlphabet = "[]()!+ \t\r\n"
)

type detector struct {
	tag            string
	confidence     float64
	recommendation string
	check          func(src string) (string, bool)
}

func countDetector(pattern *regexp.Regexp, threshold int, what string) func(string) (string, bool) {
	return func(src string) (string, bool) {
		n := len(pattern.FindAllStringIndex(src, threshold+1))
		if n < threshold {
			return "", false
		}
		return fmt.Sprintf("%d+ occurrences of %s", threshold, what), true
	}
}

func matchDetector(pattern *regexp.Regexp, what string) func(string) (string, bool) {
	return func(src string) (string, bool) {
		if !pattern.MatchString(src) {
			return "", false
		}
		return what, true
	}
}

// detectors is the fixed battery. Order only affects output ordering.
var detectors = []detector{
	{
		tag: "hex-identifiers", confidence: 0.9,
		recommendation: "Rename hex identifiers with a deobfuscator before review.",
		check:          countDetector(hexIdentifierPattern, 5, "_0x-style hexadecimal identifiers"),
	},
	{
		tag: "control-flow-flattening", confidence: 0.85,
		recommendation: "Reconstruct the original control flow from the dispatcher switch before auditing logic.",
		check:          matchDetector(flatteningPattern, "while(true){switch dispatcher loop"),
	},
	{
		tag: "invisible-characters", confidence: 0.95,
		recommendation: "Strip zero-width characters; they can hide logic from reviewers and diff tools.",
		check:          matchDetector(zeroWidthPattern, "zero-width or BOM characters inside source text"),
	},
	{
		tag: "string-array-rotation", confidence: 0.9,
		recommendation: "Resolve the rotated string array to recover literal strings.",
		check:          matchDetector(stringArrayRotationPattern, "push/shift string-array rotation helper"),
	},
	{
		tag: "dead-code-injection", confidence: 0.6,
		recommendation: "Remove statically-false branches before measuring real complexity.",
		check:          countDetector(deadCodePattern, 2, "if(false)-style dead branches"),
	},
	{
		tag: "opaque-predicates", confidence: 0.7,
		recommendation: "Evaluate constant boolean expressions to simplify branch conditions.",
		check:          countDetector(opaquePredicatePattern, 3, "constant-valued predicate expressions"),
	},
	{
		tag: "esoteric-encoding", confidence: 1.0,
		recommendation: "Execute in an instrumented sandbox to recover the decoded payload; static reading is impractical.",
		check:          checkEsoteric,
	},
	{
		tag: "packer", confidence: 0.95,
		recommendation: "Unpack with the matching p,a,c,k,e,d dictionary decoder.",
		check:          matchDetector(packerPattern, "eval(function(p,a,c,k,e,...) packer header"),
	},
	{
		tag: "repeated-eval", confidence: 0.6,
		recommendation: "Trace each eval input; layered eval usually means staged payload decoding.",
		check:          countDetector(evalCallPattern, 3, "eval calls"),
	},
	{
		tag: "base64-payloads", confidence: 0.7,
		recommendation: "Decode the embedded base64 blobs and analyze the decoded content.",
		check:          countDetector(base64LiteralPattern, 3, "long base64-looking string literals"),
	},
	{
		tag: "hex-escape-density", confidence: 0.8,
		recommendation: "Unescape \\x sequences to expose the hidden string literals.",
		check:          countDetector(hexEscapePattern, 20, "hexadecimal escape sequences"),
	},
	{
		tag: "unicode-escape-density", confidence: 0.7,
		recommendation: "Unescape \\u sequences to expose the hidden string literals.",
		check:          countDetector(unicodeEscapePattern, 20, "unicode escape sequences"),
	},
	{
		tag: "url-encoding", confidence: 0.6,
		recommendation: "URL-decode the embedded payloads and re-run the analysis on the result.",
		check:          countDetector(urlEncodingPattern, 3, "percent-encoded character runs"),
	},
	{
		tag: "self-modifying", confidence: 0.7,
		recommendation: "Treat as hostile: the script rewrites or introspects its own code at runtime.",
		check:          matchDetector(selfModifyingPattern, "self-referential or prototype-tampering construct"),
	},
	{
		tag: "charcode-building", confidence: 0.75,
		recommendation: "Evaluate the fromCharCode sequences to recover the constructed strings.",
		check:          matchDetector(fromCharCodePattern, "String.fromCharCode with numeric argument list"),
	},
	{
		tag: "function-constructor", confidence: 0.65,
		recommendation: "Inspect every Function constructor input; it is eval by another name.",
		check:          matchDetector(functionConstructorPattern, "new Function(...) dynamic code construction"),
	},
	{
		tag: "atob-chains", confidence: 0.6,
		recommendation: "Decode the atob inputs; chained decoding is a common dropper shape.",
		check:          countDetector(atobPattern, 2, "atob decoding calls"),
	},
	{
		tag: "joined-string-array", confidence: 0.55,
		recommendation: "Join the fragment arrays to reconstruct the concealed strings.",
		check:          matchDetector(joinedArrayPattern, "string-fragment array immediately joined"),
	},
	{
		tag: "computed-member-strings", confidence: 0.6,
		recommendation: "Fold concatenated property names to reveal the real member accesses.",
		check:          countDetector(computedStringAccessPattern, 2, "member access via concatenated string fragments"),
	},
}

// checkEsoteric flags sources whose opening text is drawn purely from the
// minimal JSFuck alphabet. Only the first 1000 characters are judged.
func checkEsoteric(src string) (string, bool) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return "", false
	}
	window := trimmed
	if len(window) > 1000 {
		window = window[:1000]
	}
	for _, r := range window {
		if !strings.ContainsRune(esotericAlphabet, r) {
			return "", false
		}
	}
	return "leading text uses only the []()!+ alphabet", true
}

// Classify runs the detector battery plus the composite commercial check
// and the virtual-machine sub-detector. When nothing fires the verdict is
// a single unknown tag at 0.5.
func Classify(source []byte, logger *zap.Logger) schemas.ObfuscationVerdict {
	log := logger.Named("obfuscation_classifier")
	src := string(source)

	verdict := schemas.ObfuscationVerdict{
		Tags:            []schemas.ObfuscationTag{},
		Evidence:        []string{},
		Recommendations: []string{},
	}

	for _, d := range detectors {
		evidence, ok := d.check(src)
		if !ok {
			continue
		}
		verdict.Tags = append(verdict.Tags, schemas.ObfuscationTag{Type: d.tag, Confidence: d.confidence})
		verdict.Evidence = append(verdict.Evidence, evidence)
		verdict.Recommendations = append(verdict.Recommendations, d.recommendation)
	}

	if tag, evidence, ok := detectCommercialObfuscator(src); ok {
		verdict.Tags = append(verdict.Tags, tag)
		verdict.Evidence = append(verdict.Evidence, evidence...)
		verdict.Recommendations = append(verdict.Recommendations,
			"Use a dedicated obfuscator.io deobfuscation pass before manual review.")
	}

	if vm := DetectVMProtection(src); vm.Detected {
		verdict.VMProtection = &vm
		verdict.Tags = append(verdict.Tags, schemas.ObfuscationTag{Type: "vm-protection", Confidence: 0.85})
		verdict.Evidence = append(verdict.Evidence,
			fmt.Sprintf("bytecode interpreter loop with ~%d instructions (%s complexity)", vm.EstimatedInstructions, vm.Complexity))
		verdict.Recommendations = append(verdict.Recommendations,
			"Lift the embedded bytecode with a VM-aware devirtualizer; direct source reading will not recover the logic.")
	}

	if len(verdict.Tags) == 0 {
		verdict.Tags = append(verdict.Tags, schemas.ObfuscationTag{Type: "unknown", Confidence: 0.5})
		verdict.Recommendations = append(verdict.Recommendations,
			"No known obfuscation signature matched; review manually if the script still looks machine-generated.")
	}

	log.Debug("Obfuscation classification complete.", zap.Int("tags", len(verdict.Tags)))
	return verdict
}

// detectCommercialObfuscator is the weighted composite for the
// obfuscator.io family: at least 3 of its 4 signals must be present.
func detectCommercialObfuscator(src string) (schemas.ObfuscationTag, []string, bool) {
	signals := []struct {
		present bool
		note    string
	}{
		{len(hexIdentifierPattern.FindAllStringIndex(src, 6)) >= 5, "dense _0x identifier naming"},
		{stringArrayRotationPattern.MatchString(src), "string-array rotation helper"},
		{hexStringArrayPattern.MatchString(src), "hex-named top-level string array"},
		{debuggerTrapPattern.MatchString(src), "anti-debugging trap loop"},
	}

	hits := 0
	var evidence []string
	for _, s := range signals {
		if s.present {
			hits++
			evidence = append(evidence, s.note)
		}
	}
	if hits < 3 {
		return schemas.ObfuscationTag{}, nil, false
	}
	return schemas.ObfuscationTag{Type: "obfuscator-io", Confidence: 0.9}, evidence, true
}
