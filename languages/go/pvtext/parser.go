package pvtext

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/johnsiilver/halfpike"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

// ParseDescriptor parses the text written by WriteDescriptor into a Map. Blank lines and
// lines starting with "#" are ignored. Errors wrap errors.ErrEncoding or the error
// from building the Map (such as errors.ErrDuplicateFieldName).
func ParseDescriptor(ctx context.Context, text string, options ...Option) (*mapping.Map, error) {
	opts, err := getOptions(options)
	if err != nil {
		return nil, err
	}
	norm, err := leveled(text, opts.Indent)
	if err != nil {
		return nil, err
	}
	p := &descParser{}
	err = halfpike.Parse(ctx, norm, p)
	switch {
	case p.err != nil:
		return nil, p.err
	case err != nil:
		return nil, fmt.Errorf("%v: %w", err, errors.ErrEncoding)
	case p.m == nil:
		return nil, fmt.Errorf("no structure found: %w", errors.ErrEncoding)
	}
	return p.m, nil
}

// leveled replaces the indentation of every line with its depth, so that "    int x" at
// the first level becomes "1 int x". This keeps depth in the tokens halfpike hands us.
func leveled(text, indent string) (string, error) {
	var sb strings.Builder
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			// Keep the line so that halfpike line numbers match the input.
			sb.WriteString("#\n")
			continue
		}
		lead := line[:len(line)-len(trimmed)]
		depth := strings.Count(lead, "\t")
		spaces := strings.ReplaceAll(lead, "\t", "")
		if len(spaces)%len(indent) != 0 || strings.Count(spaces, indent)*len(indent) != len(spaces) {
			return "", fmt.Errorf("[Line %d]: indentation is not a multiple of %q: %w", i+1, indent, errors.ErrEncoding)
		}
		depth += len(spaces) / len(indent)
		sb.WriteString(strconv.Itoa(depth))
		sb.WriteByte(' ')
		sb.WriteString(trimmed)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// descLine is one non blank line of a descriptor.
type descLine struct {
	num   int
	depth int
	toks  []string
}

// descParser implements halfpike.Validator.
type descParser struct {
	m   *mapping.Map
	err error
}

// Validate implements halfpike.Validator.
func (d *descParser) Validate() error {
	if d.err != nil {
		return d.err
	}
	if d.m == nil {
		return fmt.Errorf("no structure found")
	}
	return nil
}

// Start is the entry point for halfpike parsing.
func (d *descParser) Start(_ context.Context, p *halfpike.Parser) halfpike.ParseFn {
	top, ok, err := d.next(p)
	switch {
	case err != nil:
		d.err = err
		return nil
	case !ok:
		return nil
	}
	if top.depth != 0 || len(top.toks) != 1 {
		d.err = fmt.Errorf("[Line %d]: first line must be the structure ID alone: %w", top.num, errors.ErrEncoding)
		return nil
	}
	fields, err := d.fields(p, 1)
	if err != nil {
		d.err = err
		return nil
	}
	switch extra, ok, err := d.next(p); {
	case err != nil:
		d.err = err
		return nil
	case ok:
		d.err = fmt.Errorf("[Line %d]: text after the end of structure %q: %w", extra.num, top.toks[0], errors.ErrEncoding)
		return nil
	}
	d.m, d.err = mapping.NewMapWithID(top.toks[0], fields...)
	if d.err != nil {
		d.err = fmt.Errorf("[Line %d]: %w", top.num, d.err)
	}
	return nil
}

// next returns the next descriptor line. ok is false at EOF.
func (d *descParser) next(p *halfpike.Parser) (descLine, bool, error) {
	for {
		line := p.Next()
		if p.EOF(line) {
			return descLine{}, false, nil
		}
		toks := strings.Fields(line.Raw)
		if len(toks) == 0 || toks[0] == "#" {
			continue
		}
		// LineNum counts from 0.
		num := line.LineNum + 1
		depth, err := strconv.Atoi(toks[0])
		if err != nil {
			return descLine{}, false, fmt.Errorf("[Line %d]: bad depth marker %q: %w", num, toks[0], errors.ErrEncoding)
		}
		return descLine{num: num, depth: depth, toks: toks[1:]}, true, nil
	}
}

// fields reads field lines at depth until a line at a lower depth or EOF.
func (d *descParser) fields(p *halfpike.Parser, depth int) ([]*mapping.FieldDescr, error) {
	var fields []*mapping.FieldDescr
	for {
		line, ok, err := d.next(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return fields, nil
		}
		if line.depth < depth {
			p.Backup()
			return fields, nil
		}
		if line.depth > depth {
			return nil, fmt.Errorf("[Line %d]: unexpected indentation: %w", line.num, errors.ErrEncoding)
		}
		if len(line.toks) != 2 {
			return nil, fmt.Errorf("[Line %d]: want '<type> <name>', got %q: %w", line.num, strings.Join(line.toks, " "), errors.ErrEncoding)
		}
		fd, err := d.field(p, line, depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}
}

func (d *descParser) field(p *halfpike.Parser, line descLine, depth int) (*mapping.FieldDescr, error) {
	typeID, name := line.toks[0], line.toks[1]

	if c, t, ok := field.ParseTypeID(typeID); ok {
		var fd *mapping.FieldDescr
		var err error
		if c == field.ScalarArray {
			fd, err = mapping.NewScalarArray(name, t)
		} else {
			fd, err = mapping.NewScalar(name, t)
		}
		if err != nil {
			return nil, fmt.Errorf("[Line %d]: %w", line.num, err)
		}
		return fd, nil
	}

	if id, ok := strings.CutSuffix(typeID, "[]"); ok {
		elem, ok, err := d.next(p)
		switch {
		case err != nil:
			return nil, err
		case !ok || elem.depth != depth+1 || len(elem.toks) != 1:
			return nil, fmt.Errorf("[Line %d]: structure array %q must be followed by its element ID: %w", line.num, name, errors.ErrEncoding)
		case elem.toks[0] != id:
			return nil, fmt.Errorf("[Line %d]: element ID %q does not match %q: %w", elem.num, elem.toks[0], id, errors.ErrEncoding)
		}
		sub, err := d.fields(p, depth+2)
		if err != nil {
			return nil, err
		}
		m, err := mapping.NewMapWithID(id, sub...)
		if err != nil {
			return nil, fmt.Errorf("[Line %d]: %w", line.num, err)
		}
		return mapping.NewStructureArray(name, m)
	}

	sub, err := d.fields(p, depth+1)
	if err != nil {
		return nil, err
	}
	m, err := mapping.NewMapWithID(typeID, sub...)
	if err != nil {
		return nil, fmt.Errorf("[Line %d]: %w", line.num, err)
	}
	fd, err := mapping.NewStructure(name, m)
	if err != nil {
		return nil, fmt.Errorf("[Line %d]: %w", line.num, err)
	}
	return fd, nil
}
