// Package sqllint checks that every inline SQL constant starts with a unique
// "--sql <uuid>" marker. The marker is what the query log records.
package sqllint

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlPattern    = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

// Violation is one offending constant.
type Violation struct {
	File    string
	Name    string
	Line    int
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.File, v.Line, v.Message, v.Name)
}

type marked struct {
	id  string
	pos Violation
}

// Lint walks targets (directories or .go files) and reports constants whose
// marker is missing, malformed or reused.
func Lint(targets []string) ([]Violation, error) {
	var (
		violations []Violation
		markers    []marked
	)
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) != ".go" {
				continue
			}
			vs, ms, err := lintFile(target, nil)
			if err != nil {
				return nil, err
			}
			violations = append(violations, vs...)
			markers = append(markers, ms...)
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			vs, ms, err := lintFile(path, nil)
			if err != nil {
				return err
			}
			violations = append(violations, vs...)
			markers = append(markers, ms...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return append(violations, duplicates(markers)...), nil
}

// LintSource checks a single file held in memory.
func LintSource(filename string, src []byte) ([]Violation, error) {
	vs, ms, err := lintFile(filename, src)
	if err != nil {
		return nil, err
	}
	return append(vs, duplicates(ms)...), nil
}

func lintFile(path string, src any) ([]Violation, []marked, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var (
		violations []Violation
		markers    []marked
	)
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlPattern.MatchString(raw) {
				continue
			}
			name := ""
			if i < len(vs.Names) {
				name = vs.Names[i].Name
			}
			at := Violation{File: path, Name: name, Line: fset.Position(bl.Pos()).Line}
			m := markerPattern.FindStringSubmatch(firstLine(raw))
			if m == nil {
				at.Message = "missing or invalid --sql <uuid> marker"
				violations = append(violations, at)
				continue
			}
			markers = append(markers, marked{id: m[1], pos: at})
		}
		return true
	})
	return violations, markers, nil
}

func duplicates(markers []marked) []Violation {
	byID := map[string][]Violation{}
	for _, m := range markers {
		byID[m.id] = append(byID[m.id], m.pos)
	}
	var out []Violation
	for id, seen := range byID {
		if len(seen) < 2 {
			continue
		}
		for _, v := range seen[1:] {
			v.Message = fmt.Sprintf("marker %s already used by %s", id, seen[0].Name)
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if v == "" {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
