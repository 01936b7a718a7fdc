package barwin

import (
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/dockbar/internal/reorder"
)

// Bar colors
const (
	ColorBarBg      = 0x1f2933 // Dark bar background
	ColorButtonBg   = 0x323f4b // Idle button
	ColorButtonText = 0xf5f7fa // Light label text
	ColorSource     = 0x3498db // Blue - group being dragged
	ColorTarget     = 0x27ae60 // Green - drop target
	ColorDragging   = 0x7f8c8d // Gray - the dragged button itself
)

const (
	labelPaddingX = 8
	labelCharW    = 7
	labelAscent   = 11
)

func styleColors(s SlotStyle) (bg, fg uint32) {
	switch s {
	case StyleSource:
		return ColorSource, ColorButtonText
	case StyleTarget:
		return ColorTarget, ColorButtonText
	case StyleDragging:
		return ColorDragging, ColorBarBg
	default:
		return ColorButtonBg, ColorButtonText
	}
}

// cursorGlyph maps drag cursors onto the X core cursor font.
func cursorGlyph(c reorder.Cursor) uint16 {
	switch c {
	case reorder.CursorNotAllowed:
		return xcursor.Circle
	case reorder.CursorLeft:
		return xcursor.SBLeftArrow
	case reorder.CursorRight:
		return xcursor.SBRightArrow
	case reorder.CursorUp:
		return xcursor.SBUpArrow
	case reorder.CursorDown:
		return xcursor.SBDownArrow
	default:
		return xcursor.LeftPtr
	}
}

// fitLabel truncates title to the characters that fit in width pixels.
func fitLabel(title string, width int) string {
	room := (width - 2*labelPaddingX) / labelCharW
	if room <= 0 {
		return ""
	}
	runes := []rune(title)
	if len(runes) <= room {
		return title
	}
	if room <= 3 {
		return string(runes[:room])
	}
	return string(runes[:room-3]) + "..."
}

// xRenderer paints each slot as a child window of the bar with a core
// font label, the same way the move-mode overlay painted its hints.
type xRenderer struct {
	xu     *xgbutil.XUtil
	parent xproto.Window
	do     func(func())
	logger *slog.Logger

	children []xproto.Window
	frame    Frame

	font     xproto.Font
	gc       xproto.Gcontext
	textOK   bool
	textDone bool

	cursors map[reorder.Cursor]xproto.Cursor
}

func newRenderer(xu *xgbutil.XUtil, parent xproto.Window, do func(func()), logger *slog.Logger) *xRenderer {
	return &xRenderer{
		xu:      xu,
		parent:  parent,
		do:      do,
		logger:  logger,
		cursors: make(map[reorder.Cursor]xproto.Cursor),
	}
}

func (r *xRenderer) Render(f Frame) {
	r.frame = f
	if err := r.ensureChildren(len(f.Slots)); err != nil {
		r.logger.Warn("barwin: failed to create button windows", "error", err)
		return
	}
	conn := r.xu.Conn()
	for i, slot := range f.Slots {
		child := r.children[i]
		bg, _ := styleColors(slot.Style)
		xproto.ConfigureWindow(conn, child,
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{
				uint32(slot.Rect.Left),
				uint32(slot.Rect.Top),
				uint32(max(slot.Rect.Width(), 1)),
				uint32(max(slot.Rect.Height(), 1)),
			})
		xproto.ChangeWindowAttributes(conn, child, xproto.CwBackPixel, []uint32{bg})
		xproto.MapWindow(conn, child)
		r.paint(i)
	}
}

// paint clears slot i and draws its label.
func (r *xRenderer) paint(i int) {
	if i >= len(r.frame.Slots) || i >= len(r.children) {
		return
	}
	slot := r.frame.Slots[i]
	child := r.children[i]
	conn := r.xu.Conn()
	xproto.ClearArea(conn, false, child, 0, 0, 0, 0)
	if !r.ensureText() || slot.Button == nil {
		return
	}

	label := fitLabel(slot.Button.Title, slot.Rect.Width())
	if label == "" {
		return
	}
	// ImageText8 takes at most 255 bytes.
	if len(label) > 255 {
		label = label[:255]
	}
	bg, fg := styleColors(slot.Style)
	xproto.ChangeGC(conn, r.gc, xproto.GcForeground|xproto.GcBackground, []uint32{fg, bg})
	baseline := (slot.Rect.Height() + labelAscent) / 2
	xproto.ImageText8(conn, byte(len(label)), xproto.Drawable(child), r.gc,
		int16(labelPaddingX), int16(baseline), label)
}

func (r *xRenderer) ensureChildren(n int) error {
	conn := r.xu.Conn()
	for len(r.children) > n {
		last := r.children[len(r.children)-1]
		xevent.Detach(r.xu, last)
		xproto.DestroyWindow(conn, last)
		r.children = r.children[:len(r.children)-1]
	}

	screen := r.xu.Screen()
	for len(r.children) < n {
		wid, err := xproto.NewWindowId(conn)
		if err != nil {
			return err
		}
		err = xproto.CreateWindowChecked(conn, screen.RootDepth, wid, r.parent,
			0, 0, 1, 1, 0,
			xproto.WindowClassInputOutput, screen.RootVisual,
			xproto.CwBackPixel|xproto.CwEventMask,
			// Value list order follows the bit positions of the mask.
			[]uint32{ColorButtonBg, xproto.EventMaskExposure},
		).Check()
		if err != nil {
			return err
		}
		index := len(r.children)
		xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
			if ev.Count != 0 {
				return
			}
			r.do(func() { r.paint(index) })
		}).Connect(r.xu, wid)
		r.children = append(r.children, wid)
	}
	return nil
}

// ensureText opens the label font once. Without a font the buttons are
// still painted, just unlabeled.
func (r *xRenderer) ensureText() bool {
	if r.textDone {
		return r.textOK
	}
	r.textDone = true
	conn := r.xu.Conn()

	font, err := xproto.NewFontId(conn)
	if err != nil {
		return false
	}
	opened := false
	for _, name := range []string{"fixed", "7x13", "6x13"} {
		if err := xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			opened = true
			break
		}
	}
	if !opened {
		r.logger.Warn("barwin: no core font available, labels disabled")
		return false
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.CloseFont(conn, font)
		return false
	}
	err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(r.parent),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{ColorButtonText, ColorButtonBg, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.CloseFont(conn, font)
		return false
	}
	r.font = font
	r.gc = gc
	r.textOK = true
	return true
}

func (r *xRenderer) SetCursor(c reorder.Cursor) {
	id, ok := r.cursors[c]
	if !ok {
		var err error
		id, err = xcursor.CreateCursor(r.xu, cursorGlyph(c))
		if err != nil {
			r.logger.Debug("barwin: failed to create cursor", "cursor", c, "error", err)
			return
		}
		r.cursors[c] = id
	}
	xproto.ChangeWindowAttributes(r.xu.Conn(), r.parent, xproto.CwCursor, []uint32{uint32(id)})
}

// redraw repaints every slot.
func (r *xRenderer) redraw() {
	for i := range r.frame.Slots {
		r.paint(i)
	}
}

func (r *xRenderer) destroy() {
	conn := r.xu.Conn()
	for _, child := range r.children {
		xevent.Detach(r.xu, child)
		xproto.DestroyWindow(conn, child)
	}
	r.children = nil
	for _, id := range r.cursors {
		xproto.FreeCursor(conn, id)
	}
	r.cursors = nil
	if r.textOK {
		xproto.FreeGC(conn, r.gc)
		xproto.CloseFont(conn, r.font)
		r.textOK = false
	}
}
