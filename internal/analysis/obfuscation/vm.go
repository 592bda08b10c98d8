// File: internal/analysis/obfuscation/vm.go
package obfuscation

import (
	"regexp"

	"github.com/xkilldash9x/scriptlens/api/schemas"
)

var (
	// A dispatch loop reads the next opcode through a program-counter
	// index, in either subscript or shift form.
	dispatchPattern = regexp.MustCompile(`switch\s*\(\s*\w+\s*\[\s*\w*(?:pc|ip|counter|idx)\w*(?:\+\+)?\s*\]|switch\s*\(\s*\w+\.shift\s*\(\s*\)\s*\)|switch\s*\(\s*\w*opcode\w*\s*\)`)

	// Explicit operand stack discipline inside the interpreter body.
	stackOpPattern = regexp.MustCompile(`\w*(?:stack|stk)\w*\s*\.\s*(?:push|pop)\s*\(`)

	caseLabelPattern = regexp.MustCompile(`\bcase\s+`)
)

// DetectVMProtection looks for the interpreter-loop shape of virtualized
// scripts: a pc-indexed opcode dispatch combined with operand stack
// push/pop traffic. The instruction estimate is the dispatcher's case
// count.
func DetectVMProtection(src string) schemas.VMProtectionReport {
	if !dispatchPattern.MatchString(src) || !stackOpPattern.MatchString(src) {
		return schemas.VMProtectionReport{}
	}

	instructions := len(caseLabelPattern.FindAllStringIndex(src, -1))
	return schemas.VMProtectionReport{
		Detected:              true,
		EstimatedInstructions: instructions,
		Complexity:            complexityTier(instructions),
	}
}

func complexityTier(instructions int) string {
	switch {
	case instructions < 50:
		return "low"
	case instructions < 200:
		return "medium"
	default:
		return "high"
	}
}
