// File: internal/analysis/techstack/detector.go

// Package techstack guesses frameworks, bundlers, and crypto libraries
// from raw script text.
package techstack

import (
	"regexp"
	"strings"
)

type signature struct {
	name    string
	pattern *regexp.Regexp
}

// signatures are checked in order; each contributes at most one entry.
var signatures = []signature{
	{"React", regexp.MustCompile(`React\.createElement|react\.production|__REACT_DEVTOOLS|_jsxRuntime|react-dom`)},
	{"Vue", regexp.MustCompile(`Vue\.component|createApp\s*\(|__vue__|vue\.runtime`)},
	{"Angular", regexp.MustCompile(`angular\.module|ng-app|platformBrowserDynamic|@angular`)},
	{"Svelte", regexp.MustCompile(`SvelteComponent|svelte/internal`)},
	{"jQuery", regexp.MustCompile(`jQuery|\$\.ajax\s*\(|\$\(document\)\.ready`)},
	{"webpack", regexp.MustCompile(`__webpack_require__|webpackJsonp|webpackChunk`)},
	{"Rollup", regexp.MustCompile(`ROLLUP_ASSET_URL|rollup`)},
	{"Vite", regexp.MustCompile(`import\.meta\.env|vite/modulepreload`)},
	{"Parcel", regexp.MustCompile(`parcelRequire`)},
	{"CryptoJS", regexp.MustCompile(`CryptoJS\.`)},
	{"SJCL", regexp.MustCompile(`sjcl\.`)},
	{"Forge", regexp.MustCompile(`forge\.(?:pki|md|cipher)`)},
	{"WebCrypto", regexp.MustCompile(`crypto\.subtle\.`)},
	{"Lodash", regexp.MustCompile(`lodash|_\.debounce|_\.cloneDeep`)},
	{"Axios", regexp.MustCompile(`axios\.(?:get|post|create)\s*\(`)},
	{"Socket.IO", regexp.MustCompile(`socket\.io|io\.connect\s*\(`)},
}

// Detect returns the names of recognized technologies, in signature
// order, without duplicates.
func Detect(source []byte) []string {
	text := string(source)
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	found := []string{}
	for _, sig := range signatures {
		if sig.pattern.MatchString(text) {
			found = append(found, sig.name)
		}
	}
	return found
}
