package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/loft/pkg/bridge"
	"github.com/chazu/loft/pkg/mesh"
	"github.com/chazu/loft/pkg/tools/radial"
	"github.com/chazu/loft/pkg/tools/windows"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms loft Lisp source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids registering keyword symbols as globals, which would
//     conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: duplicate-around -> duplicate_around
//     zygomys does not allow hyphens in identifiers (it reads them as
//     subtraction).
//
// Both transformations respect string literal boundaries and line
// comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string, returning
// the keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a SexpBool.
func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_y) and plain strings ("y").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAxis converts a keyword or string to a radial.Axis.
func toAxis(s zygo.Sexp) (radial.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	switch name {
	case "x", "y", "z":
		return radial.Axis(name), nil
	}
	return "", fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the loft tool builtins into a zygomys
// environment. The builtins operate on the provided editor and record
// what they created in res.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so :keyword tokens arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, ed mesh.Editor, res *ScriptResult) {

	// -----------------------------------------------------------------------
	// (bridge :optimize true)
	// -----------------------------------------------------------------------
	env.AddFunction("bridge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		opts := bridge.Options{}

		if v, ok := pa.kw["optimize"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bridge: optimize: %w", err)
			}
			opts.Optimize = b
		}

		r, err := bridge.Bridge(ed, opts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bridge: %w", err)
		}
		res.Faces = append(res.Faces, r.Faces...)
		res.Warnings = append(res.Warnings, r.Warnings...)
		return &zygo.SexpInt{Val: int64(len(r.Faces))}, nil
	})

	// -----------------------------------------------------------------------
	// (windows :rows 2 :cols 3 :connect true)
	// -----------------------------------------------------------------------
	env.AddFunction("windows", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := windows.Params{Rows: 1, Cols: 1}

		if v, ok := pa.kw["rows"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("windows: rows: %w", err)
			}
			p.Rows = n
		}
		if v, ok := pa.kw["cols"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("windows: cols: %w", err)
			}
			p.Cols = n
		}
		if v, ok := pa.kw["connect"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("windows: connect: %w", err)
			}
			p.Connect = b
		}

		r, err := windows.Create(ed, p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("windows: %w", err)
		}
		for _, shell := range r.Shells {
			res.Faces = append(res.Faces, shell...)
		}
		res.Faces = append(res.Faces, r.Bridged...)
		res.Warnings = append(res.Warnings, r.Warnings...)
		return &zygo.SexpInt{Val: int64(len(r.Shells))}, nil
	})

	// -----------------------------------------------------------------------
	// (duplicate-around :amount 6 :axis :y :centre "-x" :merge true)
	// -----------------------------------------------------------------------
	env.AddFunction("duplicate_around", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := radial.Params{}

		if v, ok := pa.kw["amount"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate-around: amount: %w", err)
			}
			p.Amount = n
		}
		if v, ok := pa.kw["axis"]; ok {
			a, err := toAxis(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate-around: axis: %w", err)
			}
			p.Axis = a
		}
		if v, ok := pa.kw["centre"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate-around: centre: %w", err)
			}
			p.CentreDir = s
		}
		if v, ok := pa.kw["merge"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("duplicate-around: merge: %w", err)
			}
			p.Merge = b
		}

		r, err := radial.Duplicate(ed, p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("duplicate-around: %w", err)
		}
		for _, shell := range r.Shells {
			res.Faces = append(res.Faces, shell...)
		}
		res.Welds += r.Welds
		return &zygo.SexpInt{Val: int64(len(r.Shells))}, nil
	})
}
