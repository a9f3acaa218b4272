// Package patterns loads initial-state patterns from YAML files and
// stamps them into grids.
package patterns

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrBadPattern is returned for malformed pattern files.
var ErrBadPattern = errors.New("patterns: bad pattern")

// yamlPattern is the on-disk form. A pattern uses either rows (2-d art,
// 'O' for 1, '.' for 0, digits for other states) or explicit cells.
type yamlPattern struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Size        []int      `yaml:"size,omitempty"`
	Rows        []string   `yaml:"rows,omitempty"`
	Cells       []yamlCell `yaml:"cells,omitempty"`
}

type yamlCell struct {
	At    []int   `yaml:"at"`
	Value float64 `yaml:"value"`
}

// Point is one non-zero cell of a pattern, relative to its top-left corner.
type Point struct {
	At    []int
	Value float64
}

// Pattern is a parsed pattern ready to place.
type Pattern struct {
	ID          string
	Name        string
	Description string
	Size        []int // bounding extents
	Points      []Point
	FilePath    string
}

// Dims returns the pattern rank.
func (p *Pattern) Dims() int { return len(p.Size) }

// Parse decodes a YAML pattern.
func Parse(data []byte) (*Pattern, error) {
	var y yamlPattern
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if y.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrBadPattern)
	}
	if len(y.Rows) > 0 && len(y.Cells) > 0 {
		return nil, fmt.Errorf("%w: %q has both rows and cells", ErrBadPattern, y.ID)
	}
	p := &Pattern{ID: y.ID, Name: y.Name, Description: y.Description}
	if p.Name == "" {
		p.Name = p.ID
	}

	var err error
	if len(y.Rows) > 0 {
		err = p.fromRows(y.Rows)
	} else {
		err = p.fromCells(y.Cells)
	}
	if err != nil {
		return nil, err
	}
	if len(y.Size) > 0 {
		if len(y.Size) != len(p.Size) && len(p.Points) > 0 {
			return nil, fmt.Errorf("%w: %q size %v has the wrong rank", ErrBadPattern, p.ID, y.Size)
		}
		for k, e := range y.Size {
			if k < len(p.Size) && e < p.Size[k] {
				return nil, fmt.Errorf("%w: %q cells exceed size %v", ErrBadPattern, p.ID, y.Size)
			}
		}
		p.Size = append([]int(nil), y.Size...)
	}
	if len(p.Size) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrBadPattern, p.ID)
	}
	return p, nil
}

func (p *Pattern) fromRows(rows []string) error {
	width := 0
	for y, row := range rows {
		x := 0
		for _, r := range row {
			var v float64
			switch {
			case r == 'O' || r == 'o' || r == '*' || r == '#':
				v = 1
			case r == '.' || r == ' ' || r == '_':
			case r >= '0' && r <= '9':
				v = float64(r - '0')
			default:
				return fmt.Errorf("%w: %q row %d has %q", ErrBadPattern, p.ID, y, r)
			}
			if v != 0 {
				p.Points = append(p.Points, Point{At: []int{y, x}, Value: v})
			}
			x++
		}
		width = max(width, x)
	}
	p.Size = []int{len(rows), width}
	return nil
}

func (p *Pattern) fromCells(cells []yamlCell) error {
	for i, c := range cells {
		if len(c.At) == 0 {
			return fmt.Errorf("%w: %q cell %d has no coordinate", ErrBadPattern, p.ID, i)
		}
		if p.Size == nil {
			p.Size = make([]int, len(c.At))
		}
		if len(c.At) != len(p.Size) {
			return fmt.Errorf("%w: %q mixes ranks", ErrBadPattern, p.ID)
		}
		for k, v := range c.At {
			if v < 0 {
				return fmt.Errorf("%w: %q cell %d at %v", ErrBadPattern, p.ID, i, c.At)
			}
			p.Size[k] = max(p.Size[k], v+1)
		}
		val := c.Value
		if val == 0 {
			val = 1
		}
		p.Points = append(p.Points, Point{At: append([]int(nil), c.At...), Value: val})
	}
	return nil
}
