// File: internal/analysis/techstack/detector_test.go
package techstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFrameworks(t *testing.T) {
	source := `var el = React.createElement("div", null, "hi");
__webpack_require__(42);
var hash = CryptoJS.SHA256("secret");`

	found := Detect([]byte(source))
	assert.Equal(t, []string{"React", "webpack", "CryptoJS"}, found)
}

func TestDetectJQuery(t *testing.T) {
	found := Detect([]byte(`$(document).ready(function() { $.ajax({url: "/x"}); });`))
	assert.Contains(t, found, "jQuery")
}

func TestDetectWebCrypto(t *testing.T) {
	found := Detect([]byte(`const key = await crypto.subtle.generateKey(alg, true, usages);`))
	assert.Contains(t, found, "WebCrypto")
}

func TestNoMatches(t *testing.T) {
	assert.Empty(t, Detect([]byte(`function add(a, b) { return a + b; }`)))
}

func TestEmptySource(t *testing.T) {
	assert.Empty(t, Detect(nil))
}
