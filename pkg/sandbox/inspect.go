package sandbox

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// ErrDisallowed marks snippets rejected before they run because they use a
// construct that could outlive the run or block past its timeout.
var ErrDisallowed = errors.New("disallowed construct")

var blockingTimeFuncs = map[string]bool{
	"After":     true,
	"AfterFunc": true,
	"NewTicker": true,
	"NewTimer":  true,
	"Sleep":     true,
	"Tick":      true,
}

// inspect parses the wrapped program and enforces the snippet policy. Every
// declaration from bodyStart on must be the single Run function; inside it
// goroutines, channels, select and blocking time calls are rejected.
func inspect(program string, bodyStart int) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "snippet.go", program, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecution, err)
	}

	var run *ast.FuncDecl
	for _, decl := range file.Decls {
		if fset.Position(decl.Pos()).Offset < bodyStart {
			continue
		}
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || run != nil || fn.Recv != nil || fn.Name.Name != "Run" {
			return disallowed("top-level declaration")
		}
		run = fn
	}
	if run == nil || run.Body == nil {
		return disallowed("missing Run body")
	}

	var found string
	ast.Inspect(run.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.GoStmt:
			found = "go statement"
		case *ast.SelectStmt:
			found = "select statement"
		case *ast.SendStmt:
			found = "channel send"
		case *ast.ChanType:
			found = "channel type"
		case *ast.UnaryExpr:
			if x.Op == token.ARROW {
				found = "channel receive"
			}
		case *ast.SelectorExpr:
			if pkg, ok := x.X.(*ast.Ident); ok && pkg.Name == "time" && blockingTimeFuncs[x.Sel.Name] {
				found = "time." + x.Sel.Name
			}
		}
		return found == ""
	})
	if found != "" {
		return disallowed(found)
	}
	return nil
}

func disallowed(what string) error {
	return fmt.Errorf("%w: %w: %s", ErrExecution, ErrDisallowed, what)
}
