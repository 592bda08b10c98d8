// File: internal/analysis/quality/aggregator.go

// Package quality folds the other analyzers' findings into one 0-100
// score.
package quality

import (
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scriptlens/api/schemas"
)

// Component weights of the blended score.
const (
	securityWeight        = 0.40
	complexityWeight      = 0.25
	maintainabilityWeight = 0.20
	codeSmellWeight       = 0.15
)

// Inputs carries everything the score depends on.
type Inputs struct {
	Risks        []schemas.SecurityRisk
	Complexity   schemas.ComplexityMetrics
	Functions    []schemas.FunctionInfo
	AntiPatterns []schemas.AntiPatternFinding

	// External is an optional second opinion averaged in 50/50 after the
	// weighted blend.
	External *schemas.QualityOpinion
}

// Score blends security, complexity, maintainability, and code-smell
// components into a single clamped integer.
func Score(in Inputs, logger *zap.Logger) int {
	security := securityComponent(in.Risks)
	complexity := complexityComponent(in.Complexity, in.Functions)
	maintainability := maintainabilityComponent(in.Complexity)
	codeSmell := codeSmellComponent(in.AntiPatterns)

	blended := securityWeight*security +
		complexityWeight*complexity +
		maintainabilityWeight*maintainability +
		codeSmellWeight*codeSmell

	if in.External != nil {
		blended = (blended + float64(in.External.Score)) / 2
	}

	final := clamp(int(math.Round(blended)))
	logger.Named("quality_aggregator").Debug("Quality score computed.",
		zap.Float64("security", security),
		zap.Float64("complexity", complexity),
		zap.Float64("maintainability", maintainability),
		zap.Float64("code_smell", codeSmell),
		zap.Int("final", final))
	return final
}

// securityComponent starts from 100 and deducts per externally supplied
// finding by severity.
func securityComponent(risks []schemas.SecurityRisk) float64 {
	score := 100.0
	for _, r := range risks {
		score -= severityDeduction(r.Severity, 20, 10, 5, 2)
	}
	return clampF(score)
}

func complexityComponent(m schemas.ComplexityMetrics, functions []schemas.FunctionInfo) float64 {
	if m.Cyclomatic == 0 {
		return averageFunctionComplexity(functions)
	}

	score := 100.0
	switch {
	case m.Cyclomatic > 20:
		score -= 40
	case m.Cyclomatic > 10:
		score -= 20
	case m.Cyclomatic > 5:
		score -= 10
	}

	switch {
	case m.Cognitive > 15:
		score -= 30
	case m.Cognitive > 10:
		score -= 15
	}

	return clampF(score)
}

// averageFunctionComplexity is the cruder fallback used when full metrics
// are absent: score by the mean per-function cyclomatic complexity.
func averageFunctionComplexity(functions []schemas.FunctionInfo) float64 {
	if len(functions) == 0 {
		return 100
	}
	total := 0
	for _, f := range functions {
		total += f.Complexity
	}
	avg := float64(total) / float64(len(functions))
	switch {
	case avg > 10:
		return 50
	case avg > 5:
		return 75
	default:
		return 100
	}
}

// maintainabilityComponent uses the maintainability index directly; a
// missing index (unparsed source) falls back to a neutral 70.
func maintainabilityComponent(m schemas.ComplexityMetrics) float64 {
	if m.Maintainability <= 0 {
		return 70
	}
	return clampF(m.Maintainability)
}

func codeSmellComponent(findings []schemas.AntiPatternFinding) float64 {
	score := 100.0
	for _, f := range findings {
		score -= severityDeduction(f.Severity, 15, 10, 5, 2)
	}
	return clampF(score)
}

func severityDeduction(s schemas.Severity, critical, high, medium, low float64) float64 {
	switch s {
	case schemas.SeverityCritical:
		return critical
	case schemas.SeverityHigh:
		return high
	case schemas.SeverityMedium:
		return medium
	case schemas.SeverityLow:
		return low
	default:
		return low
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampF(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
