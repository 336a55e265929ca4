// Package uvl parses Universal Variability Language text into the canonical
// feature-model representation of pkg/fm.
//
// The supported surface is the UVL core: an indentation-delimited feature
// tree under a "features" section, group blocks (mandatory, optional, or,
// alternative, and the cardinality spellings [1..1] / [1..*]), quoted feature
// names, and a "constraints" section of propositional expressions using
// !, &, |, => and <=>.
//
// Attribute blocks in braces and feature cardinalities are accepted and
// ignored: they do not affect the boolean semantics this engine analyzes.
//
// All parse failures carry the MALFORMED_MODEL error code and a line hint.
package uvl

import (
	"strings"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
)

// line is one meaningful source line with its indentation split off.
type line struct {
	num    int    // 1-based source line number
	indent string // leading whitespace, verbatim
	text   string // trimmed content, comments stripped
}

// Parse turns UVL text into a feature model. It fails with a MALFORMED_MODEL
// error when the input is empty, has no (or more than one) root feature, uses
// inconsistent indentation, or references undefined features in constraints.
func Parse(text string) (*fm.Model, error) {
	lines := scan(text)
	if len(lines) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedModel, "empty model text")
	}

	var (
		root        *fm.Feature
		constraints []fm.Expr
		seenTree    bool
	)

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.indent != "" {
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: unexpected indentation outside a section", ln.num)
		}

		switch keyword(ln.text) {
		case "namespace", "include":
			// Header lines carry no boolean semantics.
			i++
		case "imports":
			// Skip the import block; composition is outside this engine's scope.
			i = skipIndented(lines, i+1)
		case "features":
			if seenTree {
				return nil, errors.New(errors.ErrCodeMalformedModel,
					"line %d: duplicate features section", ln.num)
			}
			seenTree = true
			body, next := section(lines, i+1)
			f, err := parseTree(body)
			if err != nil {
				return nil, err
			}
			root = f
			i = next
		case "constraints":
			body, next := section(lines, i+1)
			for _, cl := range body {
				expr, err := parseExpr(cl.text, cl.num)
				if err != nil {
					return nil, err
				}
				constraints = append(constraints, expr)
			}
			i = next
		default:
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: unexpected top-level %q", ln.num, ln.text)
		}
	}

	if !seenTree || root == nil {
		return nil, errors.New(errors.ErrCodeMalformedModel, "model has no features section")
	}

	return fm.NewModel(root, constraints)
}

// scan splits text into meaningful lines, dropping blanks and // comments.
func scan(text string) []line {
	var out []line
	for i, raw := range strings.Split(text, "\n") {
		content := stripComment(raw)
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			continue
		}
		indent := content[:strings.Index(content, trimmed)]
		out = append(out, line{num: i + 1, indent: indent, text: trimmed})
	}
	return out
}

// stripComment removes a trailing // comment, ignoring occurrences inside
// double-quoted names.
func stripComment(s string) string {
	inQuote := false
	for i := 0; i < len(s)-1; i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i] == '/' && s[i+1] == '/':
			return s[:i]
		}
	}
	return s
}

// keyword returns the first whitespace-delimited word of a line.
func keyword(text string) string {
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		return text[:i]
	}
	return text
}

// section collects the indented body following a section header, returning
// the body lines and the index of the next top-level line.
func section(lines []line, start int) ([]line, int) {
	i := start
	for i < len(lines) && lines[i].indent != "" {
		i++
	}
	return lines[start:i], i
}

// skipIndented returns the index of the next non-indented line.
func skipIndented(lines []line, start int) int {
	i := start
	for i < len(lines) && lines[i].indent != "" {
		i++
	}
	return i
}

// node is a parse-stack entry: either a feature or a group under a feature.
type node struct {
	indent  string
	feature *fm.Feature // set for feature entries
	group   *fm.Group   // set for group entries; points into feature.Groups of the parent
}

// parseTree builds the feature tree from the body of a features section.
// Indentation rules: a child line's indent must extend its parent's indent;
// a sibling must repeat an indent already on the stack exactly.
func parseTree(body []line) (*fm.Feature, error) {
	if len(body) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedModel, "features section is empty")
	}

	rootIndent := body[0].indent
	root, err := parseFeatureLine(body[0])
	if err != nil {
		return nil, err
	}

	// Stack of open nodes, root at the bottom. Feature and group entries
	// strictly alternate.
	stack := []*node{{indent: rootIndent, feature: root}}

	for _, ln := range body[1:] {
		if ln.indent == rootIndent {
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: multiple root features (%q)", ln.num, ln.text)
		}

		// Unwind to the innermost node whose indent is a proper prefix of
		// this line's indent.
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if strings.HasPrefix(ln.indent, top.indent) && len(ln.indent) > len(top.indent) {
				break
			}
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: inconsistent indentation", ln.num)
		}
		top := stack[len(stack)-1]

		if top.feature != nil {
			// Children of a feature must be group blocks.
			kind, ok, err := parseGroupLine(ln)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.New(errors.ErrCodeMalformedModel,
					"line %d: expected a group keyword under feature %q, got %q",
					ln.num, top.feature.Name, ln.text)
			}
			top.feature.Groups = append(top.feature.Groups, fm.Group{Kind: kind})
			g := &top.feature.Groups[len(top.feature.Groups)-1]
			stack = append(stack, &node{indent: ln.indent, group: g})
			continue
		}

		// Children of a group must be features.
		if _, isGroup, _ := parseGroupLine(ln); isGroup {
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: group keyword %q cannot nest directly inside another group",
				ln.num, ln.text)
		}
		f, err := parseFeatureLine(ln)
		if err != nil {
			return nil, err
		}
		top.group.Children = append(top.group.Children, f)
		stack = append(stack, &node{indent: ln.indent, feature: f})
	}

	return root, nil
}

// parseGroupLine recognizes group block headers. It reports ok=false for
// lines that are not group headers (i.e. feature lines).
func parseGroupLine(ln line) (fm.GroupKind, bool, error) {
	switch ln.text {
	case "mandatory":
		return fm.GroupMandatory, true, nil
	case "optional":
		return fm.GroupOptional, true, nil
	case "or":
		return fm.GroupOr, true, nil
	case "alternative":
		return fm.GroupAlternative, true, nil
	}

	// Cardinality group spellings.
	if strings.HasPrefix(ln.text, "[") && strings.HasSuffix(ln.text, "]") {
		switch ln.text {
		case "[1..1]", "[1]":
			return fm.GroupAlternative, true, nil
		case "[1..*]":
			return fm.GroupOr, true, nil
		default:
			return 0, true, errors.New(errors.ErrCodeMalformedModel,
				"line %d: unsupported group cardinality %q", ln.num, ln.text)
		}
	}

	return 0, false, nil
}

// parseFeatureLine parses a feature declaration: a bare or quoted name,
// optionally followed by a cardinality or an ignored {attribute} block.
func parseFeatureLine(ln line) (*fm.Feature, error) {
	lx := newLexer(ln.text, ln.num)

	name, err := lx.name()
	if err != nil {
		return nil, err
	}

	// Trailing metadata: cardinality [n..m] and attribute blocks {...} are
	// ignored by the boolean core.
	rest := strings.TrimSpace(lx.rest())
	for rest != "" {
		switch rest[0] {
		case '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, errors.New(errors.ErrCodeMalformedModel,
					"line %d: unterminated attribute block", ln.num)
			}
			rest = strings.TrimSpace(rest[end+1:])
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.New(errors.ErrCodeMalformedModel,
					"line %d: unterminated cardinality", ln.num)
			}
			rest = strings.TrimSpace(rest[end+1:])
		default:
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: unexpected trailing %q after feature name %q", ln.num, rest, name)
		}
	}

	return &fm.Feature{Name: name}, nil
}
