package layout

import (
	"fmt"
	"math"

	"github.com/1broseidon/dockbar/internal/geom"
)

// Orientation selects which axis is constrained and which one wraps.
type Orientation int

const (
	// Horizontal fills rows left to right and wraps into new rows.
	Horizontal Orientation = iota
	// Vertical fills columns top to bottom and wraps into new columns.
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// Thickness is a per-side margin in logical units.
type Thickness struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Uniform returns a thickness with the same value on every side.
func Uniform(v float64) Thickness {
	return Thickness{Left: v, Top: v, Right: v, Bottom: v}
}

func (t Thickness) Horizontal() float64 { return t.Left + t.Right }
func (t Thickness) Vertical() float64   { return t.Top + t.Bottom }

// Options configures button sizing.
type Options struct {
	Orientation    Orientation
	AutoSize       bool
	MaxButtonWidth float64
	MinWidthRatio  float64
	ButtonHeight   float64
	Margin         Thickness
}

// MinButtonWidth is the narrowest a button may get in auto-size mode.
func (o Options) MinButtonWidth() float64 {
	return o.MaxButtonWidth * o.MinWidthRatio
}

// Validate reports options the engine cannot work with.
func (o Options) Validate() error {
	if o.MaxButtonWidth <= 0 {
		return fmt.Errorf("max button width must be > 0 (got %v)", o.MaxButtonWidth)
	}
	if o.MinWidthRatio <= 0 || o.MinWidthRatio > 1 {
		return fmt.Errorf("min width ratio must be in (0, 1] (got %v)", o.MinWidthRatio)
	}
	if o.ButtonHeight <= 0 {
		return fmt.Errorf("button height must be > 0 (got %v)", o.ButtonHeight)
	}
	return nil
}

// Grid is the result of one layout pass. ItemWidth and ItemHeight
// include margins; ButtonWidth is the clamped width of the button itself.
type Grid struct {
	Rows         int
	Columns      int
	ItemWidth    float64
	ItemHeight   float64
	ButtonWidth  float64
	ButtonHeight float64
	RequiredSize geom.Size
	// Indeterminate is set when no finite constraint is known yet. The
	// required size is then infinite and the parent is expected to run
	// a second pass once it knows its real extent.
	Indeterminate bool
}

// Measure computes the grid for count buttons inside available.
// Only the constrained extent is consulted: width for horizontal bars,
// height for vertical ones.
func Measure(opts Options, available geom.Size, count int) Grid {
	if !opts.AutoSize {
		return measureFixed(opts, available, count)
	}
	switch opts.Orientation {
	case Vertical:
		return measureVertical(opts, available.Height, count)
	default:
		return measureHorizontal(opts, available.Width, count)
	}
}

// measureHorizontal packs buttons into the fewest rows, then spreads the
// row across as many columns as that row count allows.
func measureHorizontal(opts Options, containerWidth float64, count int) Grid {
	if !geom.Finite(containerWidth) {
		return indeterminate(opts)
	}

	marginLR := opts.Margin.Horizontal()
	minWidth := opts.MinButtonWidth()
	minWidthWithMargin := minWidth + marginLR
	if minWidthWithMargin <= 0 {
		return indeterminate(opts)
	}

	maxColumns := int(math.Floor(containerWidth / minWidthWithMargin))
	if maxColumns < 1 || count == 0 {
		return indeterminate(opts)
	}

	rows := (count-1)/maxColumns + 1
	columns := (count-1)/rows + 1

	itemWidthWithMargin := math.Floor(containerWidth / float64(columns))
	buttonWidth := geom.ClampFloat(itemWidthWithMargin-marginLR, minWidth, opts.MaxButtonWidth)
	itemHeight := opts.ButtonHeight + opts.Margin.Vertical()

	return Grid{
		Rows:         rows,
		Columns:      columns,
		ItemWidth:    buttonWidth + marginLR,
		ItemHeight:   itemHeight,
		ButtonWidth:  buttonWidth,
		ButtonHeight: opts.ButtonHeight,
		RequiredSize: geom.Size{Width: containerWidth, Height: float64(rows) * itemHeight},
	}
}

// measureVertical is the transpose of measureHorizontal with a binary
// width policy: one column gets the max width, several get the min width.
func measureVertical(opts Options, containerHeight float64, count int) Grid {
	if !geom.Finite(containerHeight) {
		return indeterminate(opts)
	}

	itemHeight := opts.ButtonHeight + opts.Margin.Vertical()
	if itemHeight <= 0 {
		return indeterminate(opts)
	}

	maxRows := int(math.Floor(containerHeight / itemHeight))
	if maxRows < 1 || count == 0 {
		return indeterminate(opts)
	}

	columns := (count-1)/maxRows + 1
	rows := (count-1)/columns + 1

	buttonWidth := opts.MaxButtonWidth
	if columns > 1 {
		buttonWidth = opts.MinButtonWidth()
	}
	itemWidth := buttonWidth + opts.Margin.Horizontal()

	return Grid{
		Rows:         rows,
		Columns:      columns,
		ItemWidth:    itemWidth,
		ItemHeight:   itemHeight,
		ButtonWidth:  buttonWidth,
		ButtonHeight: opts.ButtonHeight,
		RequiredSize: geom.Size{Width: float64(columns) * itemWidth, Height: containerHeight},
	}
}

// measureFixed gives every button the max width and wraps only when the
// available extent is known.
func measureFixed(opts Options, available geom.Size, count int) Grid {
	itemWidth := opts.MaxButtonWidth + opts.Margin.Horizontal()
	itemHeight := opts.ButtonHeight + opts.Margin.Vertical()
	g := Grid{
		ItemWidth:    itemWidth,
		ItemHeight:   itemHeight,
		ButtonWidth:  opts.MaxButtonWidth,
		ButtonHeight: opts.ButtonHeight,
	}
	if count == 0 {
		return g
	}

	switch opts.Orientation {
	case Vertical:
		perColumn := count
		if geom.Finite(available.Height) && itemHeight > 0 {
			perColumn = max(1, int(math.Floor(available.Height/itemHeight)))
		}
		g.Columns = (count-1)/perColumn + 1
		g.Rows = min(count, perColumn)
	default:
		perRow := count
		if geom.Finite(available.Width) && itemWidth > 0 {
			perRow = max(1, int(math.Floor(available.Width/itemWidth)))
		}
		g.Rows = (count-1)/perRow + 1
		g.Columns = min(count, perRow)
	}
	g.RequiredSize = geom.Size{
		Width:  float64(g.Columns) * itemWidth,
		Height: float64(g.Rows) * itemHeight,
	}
	return g
}

func indeterminate(opts Options) Grid {
	return Grid{
		ItemWidth:     opts.MaxButtonWidth + opts.Margin.Horizontal(),
		ItemHeight:    opts.ButtonHeight + opts.Margin.Vertical(),
		ButtonWidth:   opts.MaxButtonWidth,
		ButtonHeight:  opts.ButtonHeight,
		RequiredSize:  geom.Size{Width: geom.Infinite, Height: geom.Infinite},
		Indeterminate: true,
	}
}

// Arrange returns the button rectangles (margins removed) for count items
// laid out on g. Horizontal grids fill row by row, vertical grids column
// by column. Every button gets the same final size.
func Arrange(g Grid, orientation Orientation, margin Thickness, count int) []geom.LogicalRect {
	if count <= 0 {
		return nil
	}
	rows, cols := g.Rows, g.Columns
	if g.Indeterminate || rows < 1 || cols < 1 {
		// Single line along the wrapping axis until a real constraint arrives.
		if orientation == Vertical {
			rows, cols = count, 1
		} else {
			rows, cols = 1, count
		}
	}

	rects := make([]geom.LogicalRect, 0, count)
	for i := 0; i < count; i++ {
		var row, col int
		if orientation == Vertical {
			col = i / rows
			row = i % rows
		} else {
			row = i / cols
			col = i % cols
		}
		rects = append(rects, geom.LogicalRect{
			X:      float64(col)*g.ItemWidth + margin.Left,
			Y:      float64(row)*g.ItemHeight + margin.Top,
			Width:  g.ButtonWidth,
			Height: g.ButtonHeight,
		})
	}
	return rects
}
