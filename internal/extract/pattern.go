package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Field kinds of a pattern descriptor.
const (
	FieldLiteral  = "literal"  // fixed token, e.g. "SKU#"
	FieldCode     = "code"     // classification code
	FieldAmount   = "amount"   // numeric token in the invoice number grammar
	FieldUnit     = "unit"     // unit label, e.g. PCS
	FieldCurrency = "currency" // three-letter currency marker, not captured
)

// Capture targets for non-literal fields.
const (
	CaptureCode       = "code"
	CaptureQuantity   = "quantity"
	CaptureUnit       = "unit"
	CaptureUnitPrice  = "unit_price"
	CaptureTotalPrice = "total_price"
)

// Field is one element of a line-item layout, in left-to-right order.
type Field struct {
	Kind     string `json:"kind"`
	Capture  string `json:"capture,omitempty"`
	Literal  string `json:"literal,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Pattern is a declarative descriptor of one known line-item layout. It is
// compiled once into an anchored regexp; a line must match in full for the
// pattern to claim it.
type Pattern struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	re       *regexp.Regexp
	captures []string
}

func fragmentFor(f Field) (string, bool, error) {
	switch f.Kind {
	case FieldLiteral:
		if f.Literal == "" {
			return "", false, fmt.Errorf("literal field requires a literal value")
		}
		return regexp.QuoteMeta(f.Literal), false, nil
	case FieldCode:
		return `([A-Za-z0-9][A-Za-z0-9.\-/]*)`, true, nil
	case FieldAmount:
		// Deliberately loose: the strict grammar check happens in
		// ParseAmount so malformed numerics surface as parse failures
		// instead of silently falling through to another pattern.
		return `([\d,]+(?:\.\d+)?)`, true, nil
	case FieldUnit:
		return `([A-Za-z][A-Za-z./\\]*)`, true, nil
	case FieldCurrency:
		return `[A-Z]{3}`, false, nil
	default:
		return "", false, fmt.Errorf("unknown field kind %q", f.Kind)
	}
}

// Compile builds the pattern's regexp. It must be called (directly or via
// MustCompile) before Match; patterns arriving from profiles or the AI
// suggester are validated here.
func (p *Pattern) Compile() error {
	if p.Name == "" {
		return fmt.Errorf("pattern has no name")
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("pattern %q has no fields", p.Name)
	}

	var b strings.Builder
	b.WriteString(`^`)
	p.captures = nil

	for i, f := range p.Fields {
		frag, captured, err := fragmentFor(f)
		if err != nil {
			return fmt.Errorf("pattern %q field %d: %w", p.Name, i, err)
		}
		if captured {
			if f.Capture == "" {
				return fmt.Errorf("pattern %q field %d: %s field requires a capture target", p.Name, i, f.Kind)
			}
			p.captures = append(p.captures, f.Capture)
		}

		sep := `\s+`
		if i == 0 {
			sep = ``
		} else if p.Fields[i-1].Kind == FieldLiteral {
			// Literals such as "SKU#" may abut the next token.
			sep = `\s*`
		}

		if f.Optional {
			b.WriteString(`(?:` + sep + frag + `)?`)
		} else {
			b.WriteString(sep + frag)
		}
	}
	b.WriteString(`$`)

	seen := make(map[string]bool, len(p.captures))
	for _, c := range p.captures {
		if seen[c] {
			return fmt.Errorf("pattern %q captures %q twice", p.Name, c)
		}
		seen[c] = true
	}
	for _, required := range []string{CaptureCode, CaptureQuantity, CaptureTotalPrice} {
		if !seen[required] {
			return fmt.Errorf("pattern %q does not capture %s", p.Name, required)
		}
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return fmt.Errorf("pattern %q: %w", p.Name, err)
	}
	p.re = re
	return nil
}

// MustCompile compiles the pattern and panics on error. For the built-in set.
func (p *Pattern) MustCompile() *Pattern {
	if err := p.Compile(); err != nil {
		panic(err)
	}
	return p
}

// Match tries the pattern against a fully normalized line. On success it
// returns the captured raw tokens keyed by capture target. Optional captured
// fields that were absent are omitted from the map.
func (p *Pattern) Match(line string) (map[string]string, bool) {
	if p.re == nil {
		return nil, false
	}
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(p.captures))
	for i, name := range p.captures {
		if m[i+1] != "" {
			out[name] = m[i+1]
		}
	}
	return out, true
}
