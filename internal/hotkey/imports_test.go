package hotkey

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// The desktop hotkey library opens the display in init, so anything that
// imports this package would fail to start without one.
func TestPackageDoesNotImportDesktopLibrary(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("Unable to parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if strings.HasPrefix(path, "golang.design/x/hotkey") || strings.HasPrefix(path, "github.com/BurntSushi/") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
