// Package skills normalizes raw recruiter/résumé skill strings into a
// canonical vocabulary via a static alias table (C1).
package skills

import (
	"sort"
	"strings"
)

// aliasTable maps a cleaned raw skill string to its canonical form. It is
// the single source of truth shared between ingestion and the query path;
// diverging copies would break gating (spec.md §4.1).
var aliasTable = map[string]string{
	// languages
	"js":         "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"golang":     "go",
	"go":         "go",
	"py":         "python",
	"python":     "python",
	"py3":        "python",
	"c++":        "c++",
	"cpp":        "c++",
	"c#":         "c#",
	"csharp":     "c#",
	"dotnet":     ".net",
	".net":       ".net",
	"rb":         "ruby",
	"ruby":       "ruby",
	"kt":         "kotlin",
	"kotlin":     "kotlin",
	"rust":       "rust",
	"rs":         "rust",
	"scala":      "scala",
	"php":        "php",
	"swift":      "swift",
	"objective-c": "objective-c",
	"objc":       "objective-c",
	"r":          "r",
	"matlab":     "matlab",
	"perl":       "perl",
	"haskell":    "haskell",
	"elixir":     "elixir",
	"erlang":     "erlang",
	"clojure":    "clojure",
	"bash":       "shell",
	"shell":      "shell",
	"sh":         "shell",
	"sql":        "sql",

	// frameworks / libraries
	"react":      "react",
	"reactjs":    "react",
	"react.js":   "react",
	"vue":        "vue",
	"vuejs":      "vue",
	"vue.js":     "vue",
	"angular":    "angular",
	"angularjs":  "angular",
	"node":       "node.js",
	"nodejs":     "node.js",
	"node.js":    "node.js",
	"express":    "express",
	"expressjs":  "express",
	"django":     "django",
	"flask":      "flask",
	"fastapi":    "fastapi",
	"spring":     "spring",
	"springboot": "spring",
	"spring boot": "spring",
	"rails":      "rails",
	"ror":        "rails",
	"laravel":    "laravel",
	"nextjs":     "next.js",
	"next.js":    "next.js",
	"gin":        "gin",
	"echo":       "echo",

	// ML / data
	"ml":               "machine learning",
	"machine learning": "machine learning",
	"dl":               "deep learning",
	"deep learning":    "deep learning",
	"nlp":              "natural language processing",
	"natural language processing": "natural language processing",
	"cv":             "computer vision",
	"computer vision": "computer vision",
	"pytorch":        "pytorch",
	"torch":          "pytorch",
	"tensorflow":     "tensorflow",
	"tf":             "tensorflow",
	"keras":          "keras",
	"sklearn":        "scikit-learn",
	"scikit-learn":   "scikit-learn",
	"pandas":         "pandas",
	"numpy":          "numpy",
	"llm":            "large language models",
	"llms":           "large language models",
	"genai":          "generative ai",
	"generative ai":  "generative ai",

	// clouds / infra
	"aws":          "aws",
	"amazon web services": "aws",
	"gcp":          "gcp",
	"google cloud": "gcp",
	"azure":        "azure",
	"k8s":          "kubernetes",
	"kubernetes":   "kubernetes",
	"docker":       "docker",
	"terraform":    "terraform",
	"tf-infra":     "terraform",
	"ansible":      "ansible",
	"ci/cd":        "ci/cd",
	"cicd":         "ci/cd",
	"jenkins":      "jenkins",
	"github actions": "github actions",

	// databases
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"pg":         "postgresql",
	"mysql":      "mysql",
	"mongo":      "mongodb",
	"mongodb":    "mongodb",
	"redis":      "redis",
	"elasticsearch": "elasticsearch",
	"es":         "elasticsearch",
	"cassandra":  "cassandra",
	"dynamodb":   "dynamodb",
	"sqlite":     "sqlite",

	// misc
	"rest":   "rest api",
	"restapi": "rest api",
	"rest api": "rest api",
	"graphql": "graphql",
	"grpc":    "grpc",
	"git":     "git",
	"linux":   "linux",
	"helm":    "helm",
	"cobol":   "cobol",
	"mainframe": "mainframe",
}

// Canonical returns every distinct canonical skill the alias table resolves
// to, sorted ascending, for the GET /skills introspection endpoint.
func Canonical() []string {
	seen := make(map[string]struct{}, len(aliasTable))
	out := make([]string, 0, len(aliasTable))
	for _, canon := range aliasTable {
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		out = append(out, canon)
	}
	sort.Strings(out)
	return out
}

// Normalize trims whitespace, lowercases, strips trailing punctuation, and
// resolves the cleaned form through the alias table (spec.md §4.1 steps 1-2).
// It is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	cleaned := clean(raw)
	if canon, ok := aliasTable[cleaned]; ok {
		return canon
	}
	return cleaned
}

func clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ToLower(s)
	s = strings.TrimRight(s, ".,;:")
	return s
}

// NormalizeList applies Normalize to each element and de-duplicates,
// preserving first-seen order (spec.md §4.1 step 3).
func NormalizeList(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := Normalize(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Alias looks up the canonical form for a raw skill, reporting whether the
// cleaned form was present in the alias table (as opposed to passing through
// unchanged).
func Alias(raw string) (canonical string, known bool) {
	cleaned := clean(raw)
	canon, ok := aliasTable[cleaned]
	if !ok {
		return cleaned, false
	}
	return canon, true
}
