package gate

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/abhisek/readgate/"

// moduleImports returns the non-test imports of the package in dir.
func moduleImports(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	fset := token.NewFileSet()
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			out = append(out, p)
		}
	}
	return out
}

// The workflow package must not link the LLM SDKs; some of them start
// background goroutines at init.
func TestGateDoesNotDependOnLLM(t *testing.T) {
	root := filepath.Join("..", "..")
	forbidden := []string{
		modulePath + "internal/llm",
		modulePath + "internal/quiz",
		"github.com/anthropics/anthropic-sdk-go",
		"github.com/sashabaranov/go-openai",
		"google.golang.org/genai",
	}

	seen := map[string]bool{}
	var walk func(pkg string, chain []string)
	walk = func(pkg string, chain []string) {
		if seen[pkg] {
			return
		}
		seen[pkg] = true
		for _, imp := range moduleImports(t, filepath.Join(root, strings.TrimPrefix(pkg, modulePath))) {
			for _, bad := range forbidden {
				if imp == bad || strings.HasPrefix(imp, bad+"/") {
					t.Fatalf("%s imports %s via %v", pkg, imp, chain)
				}
			}
			if strings.HasPrefix(imp, modulePath) {
				walk(imp, append(chain, imp))
			}
		}
	}
	walk(modulePath+"internal/gate", nil)
}
