// File: api/schemas/schemas_test.go
package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptAnalysisOmitsEmptyOptionals(t *testing.T) {
	out, err := json.Marshal(ScriptAnalysis{Name: "app.js"})
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, `"module"`, "nil ModuleInfo should be omitted")
	assert.NotContains(t, s, `"context"`, "empty context should be omitted")
	assert.NotContains(t, s, `"businessLogic"`)
	assert.Contains(t, s, `"qualityScore"`)
}

func TestTaintPathRefinedFlagRoundTrip(t *testing.T) {
	p := TaintPath{
		Source:  TaintSourceInfo{Kind: SourceKindUserInput, Name: "location.search", Line: 3},
		Sink:    TaintSinkInfo{Kind: SinkKindEval, Name: "eval", Line: 9},
		Trail:   []int{3, 9},
		Refined: true,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back TaintPath
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	// The deterministic passes never set Refined; it must vanish from
	// their serialized paths.
	p.Refined = false
	data, err = json.Marshal(p)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "refined"))
}

func TestSeverityConstantsAreLowercase(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		assert.Equal(t, strings.ToLower(string(s)), string(s))
	}
}
