package applicator

import (
	"regexp"
	"strings"
)

// versionSpecifier strips PEP 508 version/extra qualifiers off a
// requirements.txt line's package name, e.g. "requests[socks]>=2,<3".
var versionSpecifier = regexp.MustCompile(`[\[<>=!~; ].*$`)

// parseRequirements reads a requirements.txt body into the set of
// existing package names, lower-cased and stripped of version specifiers
// (spec §4.6 step 2).
func parseRequirements(content string) map[string]bool {
	existing := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := versionSpecifier.ReplaceAllString(line, "")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			existing[name] = true
		}
	}
	return existing
}

// appendRequirements appends new package names to the requirements.txt
// body, one per line, preserving existing lines and comments verbatim
// (spec §6 "Requirements-file discipline").
func appendRequirements(content string, newPackages []string) string {
	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	for _, pkg := range newPackages {
		b.WriteString(pkg)
		b.WriteString("\n")
	}
	return b.String()
}
