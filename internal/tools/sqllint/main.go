// Command sqllint checks that every inline SQL constant carries a
// "--sql <uuid>" audit marker on its first line and that no two queries
// share a marker. Markers let slow-query logs and pg_stat_statements rows
// be traced back to the Go constant that issued them.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// statementPattern anchors on the start of the query body so prose that
	// merely contains a keyword ("a rooftop with city lights") is ignored.
	statementPattern = regexp.MustCompile(`(?i)^(select|insert|update|delete|with)\b`)
	markerPattern    = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type finding struct {
	pos     token.Position
	name    string
	message string
}

type linter struct {
	fset     *token.FileSet
	seen     map[string]token.Position
	findings []finding
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	lint := &linter{fset: token.NewFileSet(), seen: make(map[string]token.Position)}
	for _, target := range targets {
		if err := lint.run(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}

	if len(lint.findings) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: inline SQL audit problems")
		for _, f := range lint.findings {
			fmt.Fprintf(os.Stderr, "  %s: %s: %s\n", f.pos, f.name, f.message)
		}
		os.Exit(1)
	}
}

func (l *linter) run(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return l.lintFile(target)
		}
		return nil
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		return l.lintFile(path)
	})
}

func (l *linter) lintFile(path string) error {
	file, err := parser.ParseFile(l.fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return err
	}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, value := range vs.Values {
				lit, ok := value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				l.check(constName(vs, i), lit)
			}
		}
	}
	return nil
}

// check inspects one const string. Anything whose body starts with a SQL
// statement keyword must open with a well-formed, unique marker line.
func (l *linter) check(name string, lit *ast.BasicLit) {
	text, err := unquote(lit.Value)
	if err != nil {
		return
	}
	first, rest := splitMarker(text)
	m := markerPattern.FindStringSubmatch(first)
	if m == nil {
		if statementPattern.MatchString(strings.TrimLeft(text, " \t\r\n")) {
			l.report(lit, name, "missing --sql <uuid> marker on first line")
		}
		return
	}
	if !statementPattern.MatchString(rest) {
		l.report(lit, name, "marker present but body is not a SQL statement")
		return
	}
	id := m[1]
	if prev, dup := l.seen[id]; dup {
		l.report(lit, name, fmt.Sprintf("marker %s already used at %s", id, prev))
		return
	}
	l.seen[id] = l.fset.Position(lit.Pos())
}

func (l *linter) report(lit *ast.BasicLit, name, message string) {
	l.findings = append(l.findings, finding{
		pos:     l.fset.Position(lit.Pos()),
		name:    name,
		message: message,
	})
}

// splitMarker returns the first non-blank line and the remainder with
// leading whitespace stripped from both.
func splitMarker(s string) (first, rest string) {
	s = strings.TrimLeft(s, " \t\r\n")
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:idx]), strings.TrimLeft(s[idx+1:], " \t\r\n")
}

func unquote(v string) (string, error) {
	if strings.HasPrefix(v, "`") && strings.HasSuffix(v, "`") && len(v) >= 2 {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func constName(vs *ast.ValueSpec, i int) string {
	if i < len(vs.Names) && vs.Names[i] != nil {
		return vs.Names[i].Name
	}
	if len(vs.Names) > 0 && vs.Names[0] != nil {
		return vs.Names[0].Name
	}
	return "_"
}
