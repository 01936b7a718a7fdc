package layout

import (
	"math"
	"testing"

	"github.com/1broseidon/dockbar/internal/geom"
)

func horizontalOpts() Options {
	return Options{
		Orientation:    Horizontal,
		AutoSize:       true,
		MaxButtonWidth: 150,
		MinWidthRatio:  0.6,
		ButtonHeight:   36,
		Margin:         Uniform(2),
	}
}

func TestMeasureHorizontal_SingleRow(t *testing.T) {
	g := Measure(horizontalOpts(), geom.Size{Width: 1000, Height: geom.Infinite}, 8)

	// minWidthWithMargin=94, maxColumns=10, rows=1, columns=8,
	// itemWidthWithMargin=floor(1000/8)=125, raw width 121 is inside [90,150].
	if g.Rows != 1 || g.Columns != 8 {
		t.Fatalf("expected 1x8 grid, got %dx%d", g.Rows, g.Columns)
	}
	if g.ItemWidth != 125 {
		t.Fatalf("expected item width 125, got %v", g.ItemWidth)
	}
	if g.ButtonWidth != 121 {
		t.Fatalf("expected button width 121, got %v", g.ButtonWidth)
	}
	if g.RequiredSize != (geom.Size{Width: 1000, Height: g.ItemHeight}) {
		t.Fatalf("unexpected required size %+v", g.RequiredSize)
	}
	if g.ItemHeight != 40 {
		t.Fatalf("expected item height 40, got %v", g.ItemHeight)
	}
}

func TestMeasureHorizontal_WrapsIntoMinimumRows(t *testing.T) {
	g := Measure(horizontalOpts(), geom.Size{Width: 1000}, 20)

	// maxColumns=10 -> rows=2, columns=10, itemWidthWithMargin=100, raw 96.
	if g.Rows != 2 || g.Columns != 10 {
		t.Fatalf("expected 2x10 grid, got %dx%d", g.Rows, g.Columns)
	}
	if g.ButtonWidth != 96 {
		t.Fatalf("expected button width 96, got %v", g.ButtonWidth)
	}
	if g.RequiredSize.Height != 80 {
		t.Fatalf("expected required height 80, got %v", g.RequiredSize.Height)
	}
}

func TestMeasureHorizontal_BalancesColumnsForRowCount(t *testing.T) {
	g := Measure(horizontalOpts(), geom.Size{Width: 1000}, 21)

	// rows=ceil(21/10)=3, columns=ceil(21/3)=7, itemWidthWithMargin=142, raw 138.
	if g.Rows != 3 || g.Columns != 7 {
		t.Fatalf("expected 3x7 grid, got %dx%d", g.Rows, g.Columns)
	}
	if g.ButtonWidth != 138 {
		t.Fatalf("expected button width 138, got %v", g.ButtonWidth)
	}
}

func TestMeasureHorizontal_ClampsToMaxWidth(t *testing.T) {
	g := Measure(horizontalOpts(), geom.Size{Width: 1000}, 2)
	if g.ButtonWidth != 150 || g.ItemWidth != 154 {
		t.Fatalf("expected clamped width 150/154, got %v/%v", g.ButtonWidth, g.ItemWidth)
	}
}

func TestMeasureHorizontal_IndeterminateCases(t *testing.T) {
	cases := []struct {
		name  string
		width float64
		count int
	}{
		{"zero items", 1000, 0},
		{"zero width", 0, 5},
		{"negative width", -10, 5},
		{"infinite width", math.Inf(1), 5},
		{"narrower than one button", 50, 5},
	}
	for _, tc := range cases {
		g := Measure(horizontalOpts(), geom.Size{Width: tc.width}, tc.count)
		if !g.Indeterminate {
			t.Fatalf("%s: expected indeterminate grid, got %+v", tc.name, g)
		}
		if !math.IsInf(g.RequiredSize.Width, 1) || !math.IsInf(g.RequiredSize.Height, 1) {
			t.Fatalf("%s: expected infinite required size, got %+v", tc.name, g.RequiredSize)
		}
	}
}

func TestMeasureHorizontal_RowsNeverIncreaseWithWidth(t *testing.T) {
	opts := horizontalOpts()
	for count := 1; count <= 40; count++ {
		prev := math.MaxInt
		for width := 100.0; width <= 3000; width += 7 {
			g := Measure(opts, geom.Size{Width: width}, count)
			if g.Indeterminate {
				continue
			}
			if g.Rows > prev {
				t.Fatalf("rows increased from %d to %d at width %v (count %d)", prev, g.Rows, width, count)
			}
			prev = g.Rows
		}
	}
}

func TestMeasure_Idempotent(t *testing.T) {
	opts := horizontalOpts()
	a := Measure(opts, geom.Size{Width: 777, Height: 40}, 13)
	b := Measure(opts, geom.Size{Width: 777, Height: 40}, 13)
	if a != b {
		t.Fatalf("expected identical grids, got %+v and %+v", a, b)
	}
}

func TestMeasureVertical_BinaryWidthPolicy(t *testing.T) {
	opts := horizontalOpts()
	opts.Orientation = Vertical

	single := Measure(opts, geom.Size{Width: geom.Infinite, Height: 400}, 10)
	if single.Columns != 1 || single.Rows != 10 {
		t.Fatalf("expected 10x1 grid, got %dx%d", single.Rows, single.Columns)
	}
	if single.ButtonWidth != 150 {
		t.Fatalf("expected single column at max width, got %v", single.ButtonWidth)
	}
	if single.RequiredSize != (geom.Size{Width: 154, Height: 400}) {
		t.Fatalf("unexpected required size %+v", single.RequiredSize)
	}

	multi := Measure(opts, geom.Size{Height: 400}, 11)
	if multi.Columns != 2 || multi.Rows != 6 {
		t.Fatalf("expected 6x2 grid, got %dx%d", multi.Rows, multi.Columns)
	}
	if multi.ButtonWidth != 90 {
		t.Fatalf("expected multi column at min width, got %v", multi.ButtonWidth)
	}
	if multi.RequiredSize.Width != 188 {
		t.Fatalf("expected required width 188, got %v", multi.RequiredSize.Width)
	}
}

func TestMeasure_FixedIgnoresAvailableSpaceForSize(t *testing.T) {
	opts := horizontalOpts()
	opts.AutoSize = false

	g := Measure(opts, geom.Size{Width: 400}, 5)
	if g.ButtonWidth != 150 || g.ButtonHeight != 36 {
		t.Fatalf("expected fixed 150x36 buttons, got %vx%v", g.ButtonWidth, g.ButtonHeight)
	}
	if g.Columns != 2 || g.Rows != 3 {
		t.Fatalf("expected 3x2 wrap, got %dx%d", g.Rows, g.Columns)
	}
}

func TestArrange_RowMajorAndColumnMajor(t *testing.T) {
	opts := horizontalOpts()
	g := Measure(opts, geom.Size{Width: 1000}, 20)
	rects := Arrange(g, Horizontal, opts.Margin, 20)
	if len(rects) != 20 {
		t.Fatalf("expected 20 rects, got %d", len(rects))
	}
	if rects[10].X != 2 || rects[10].Y != 42 {
		t.Fatalf("expected item 10 to start the second row, got %+v", rects[10])
	}
	for _, r := range rects {
		if r.Width != g.ButtonWidth || r.Height != g.ButtonHeight {
			t.Fatalf("expected uniform button size, got %+v", r)
		}
	}

	opts.Orientation = Vertical
	vg := Measure(opts, geom.Size{Height: 400}, 11)
	vrects := Arrange(vg, Vertical, opts.Margin, 11)
	if vrects[6].X != vg.ItemWidth+2 || vrects[6].Y != 2 {
		t.Fatalf("expected item 6 to start the second column, got %+v", vrects[6])
	}
}
