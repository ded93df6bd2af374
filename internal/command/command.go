// Package command implements C6, the command executor: criteria-based
// selection plus a closed set of tree operations, run to completion and
// followed by a single settle step (spec §4.6).
//
// The real command grammar (i3's flex/bison parser) is explicitly out of
// scope (spec §1, "the command grammar and its parser... is external").
// This package's Parse is a deliberately small supplemental parser: enough
// to drive the closed operation set spec §4.6 lists and the keybinding
// strings a config file would contain, not a full reimplementation of the
// grammar. Grounded on the teacher's dispatch style in
// funkycode-marwind/wm/wm.go's handleKeyPress (a big switch from a parsed
// keybinding to a wm method call) generalized into data-driven Operations.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Criteria is the conjunction of attribute predicates a command's optional
// `[...]` prefix specifies (spec §4.6).
type Criteria struct {
	Class        string
	Instance     string
	TitleRegexp  string
	Mark         string
	ConID        string
	Floating     *bool
	Urgent       *bool
}

// Operation is one comma-separated step of a command (spec §4.6).
type Operation struct {
	Verb   string
	Fields []string
}

// Parsed is one semicolon-separated command: an optional criteria set and a
// non-empty operation sequence.
type Parsed struct {
	HasCriteria bool
	Criteria    Criteria
	Ops         []Operation
}

// Parse splits line into semicolon-separated commands, each with an
// optional leading `[...]` criteria block and comma-separated operations
// (spec §4.6: "commands separated by `;`, operations within a command
// separated by `,`").
func Parse(line string) ([]Parsed, error) {
	var out []Parsed
	for _, chunk := range splitTop(line, ';') {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		p := Parsed{}
		if strings.HasPrefix(chunk, "[") {
			end := strings.Index(chunk, "]")
			if end < 0 {
				return nil, fmt.Errorf("command: unterminated criteria in %q", chunk)
			}
			crit, err := parseCriteria(chunk[1:end])
			if err != nil {
				return nil, err
			}
			p.Criteria = crit
			p.HasCriteria = true
			chunk = strings.TrimSpace(chunk[end+1:])
		}
		for _, opStr := range splitTop(chunk, ',') {
			opStr = strings.TrimSpace(opStr)
			if opStr == "" {
				continue
			}
			fields := strings.Fields(opStr)
			p.Ops = append(p.Ops, Operation{Verb: fields[0], Fields: fields[1:]})
		}
		if len(p.Ops) == 0 {
			return nil, fmt.Errorf("command: empty operation sequence in %q", chunk)
		}
		out = append(out, p)
	}
	return out, nil
}

// splitTop splits s on sep, ignoring any sep found inside a `[...]` block
// so criteria like `[title="a;b"]` survive intact.
func splitTop(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// parseCriteria reads the `key=value` / `key="quoted value"` / bare-word
// pairs inside a `[...]` block.
func parseCriteria(s string) (Criteria, error) {
	var c Criteria
	fields := tokenizeCriteria(s)
	for _, tok := range fields {
		key, value, hasValue := strings.Cut(tok, "=")
		value = strings.Trim(value, `"`)
		switch key {
		case "class":
			c.Class = value
		case "instance":
			c.Instance = value
		case "title":
			c.TitleRegexp = value
		case "con_mark", "mark":
			c.Mark = value
		case "con_id", "id":
			c.ConID = value
		case "floating":
			v := true
			c.Floating = &v
		case "tiling":
			v := false
			c.Floating = &v
		case "urgent":
			v := !hasValue || value != "no"
			c.Urgent = &v
		default:
			return Criteria{}, fmt.Errorf("command: unknown criterion %q", key)
		}
	}
	return c, nil
}

// tokenizeCriteria splits on whitespace but keeps quoted "..." substrings
// (which may themselves contain spaces) intact.
func tokenizeCriteria(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// Reply is one command's result (spec §4.6: "a success boolean and an
// optional error string").
type Reply struct {
	Success bool
	Error   string
}

// ResizeAmount holds the parsed operands of a "resize grow|shrink <dir> <N>
// px or <M> ppt" command. Either operand may be absent; spec §4.3's
// tie-break rule ("a command supplying both px and ppt uses px for tiling
// children and ppt for floating") is what a caller picks between when both
// are present.
type ResizeAmount struct {
	Px     int
	HasPx  bool
	Ppt    int
	HasPpt bool
}

// parseNPxOrPpt parses the trailing "<N> px [or <M> ppt]" of a resize
// operation's fields. Either unit may come first, and the "or" clause is
// optional, but at least one operand is required.
func parseNPxOrPpt(fields []string) (ResizeAmount, error) {
	var out ResizeAmount
	for len(fields) > 0 {
		if len(fields) < 2 {
			return ResizeAmount{}, fmt.Errorf("command: resize needs an amount and unit")
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return ResizeAmount{}, fmt.Errorf("command: resize amount %q: %w", fields[0], err)
		}
		switch fields[1] {
		case "px":
			out.Px, out.HasPx = n, true
		case "ppt":
			out.Ppt, out.HasPpt = n, true
		default:
			return ResizeAmount{}, fmt.Errorf("command: resize unit %q must be px or ppt", fields[1])
		}
		fields = fields[2:]
		if len(fields) > 0 && fields[0] == "or" {
			fields = fields[1:]
			continue
		}
		break
	}
	if !out.HasPx && !out.HasPpt {
		return ResizeAmount{}, fmt.Errorf("command: resize needs an amount and unit")
	}
	return out, nil
}
