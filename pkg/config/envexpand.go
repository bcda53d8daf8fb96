package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands {{.VAR}} placeholders in YAML content against the
// process environment.
//
// Examples:
//   - {{.GOOGLE_API_KEY}} → value of GOOGLE_API_KEY environment variable
//   - {{.DB_HOST}}:{{.DB_PORT}} → hostname:port with both variables expanded
//
// Missing variables expand to an empty string; validation catches required
// fields left empty this way. Plain $VAR/${VAR} text is left untouched —
// only {{.VAR}} is template syntax here, so shell-style patterns embedded
// in regexes or passwords survive unexpanded.
//
// On any parse or execution error (unclosed action, undefined function,
// field access on a non-struct, ...) the original bytes are returned
// unchanged, letting the YAML parser report a clearer error against the
// literal template text instead.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap()); err != nil {
		return data
	}

	return buf.Bytes()
}

func envMap() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}
