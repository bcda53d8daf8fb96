package applicator

import (
	"regexp"
	"sort"
)

// importLine matches both "import foo.bar" and "from foo.bar import baz"
// at the start of a line (ignoring leading whitespace), capturing the
// top-level module prefix. A full Python parser is out of scope (spec
// §4.6 step 3: "statically parse... use a regex fallback when parsing
// fails") — this regex fallback is the only strategy implemented, since
// Go has no Python AST library in the retrieved pack.
var importLine = regexp.MustCompile(`(?m)^\s*(?:from\s+([A-Za-z_][\w.]*)\s+import|import\s+([A-Za-z_][\w.]*))`)

// discoverImports extracts the set of top-level module names imported by
// a Python source file's content.
func discoverImports(content string) []string {
	seen := make(map[string]bool)
	for _, m := range importLine.FindAllStringSubmatch(content, -1) {
		module := m[1]
		if module == "" {
			module = m[2]
		}
		top := topLevelModule(module)
		if top != "" {
			seen[top] = true
		}
	}
	modules := make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

func topLevelModule(dotted string) string {
	for i, r := range dotted {
		if r == '.' {
			return dotted[:i]
		}
	}
	return dotted
}
