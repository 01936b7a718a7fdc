package hotkeys

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/dockbar/internal/x11"
)

// MaxActivation is the number of buttons reachable from the keyboard.
const MaxActivation = 9

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on conn. The connection must have
// been created with keybind support, which x11.NewConnection does.
func NewHandler(conn *x11.Connection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		logger: logger,
	}
}

// ActivationSequences returns the key sequences for buttons 1..9 under
// modifier, in button order. An empty modifier yields nothing.
func ActivationSequences(modifier string) []string {
	modifier = strings.Trim(strings.TrimSpace(modifier), "-")
	if modifier == "" {
		return nil
	}
	seqs := make([]string, 0, MaxActivation)
	for i := 1; i <= MaxActivation; i++ {
		seqs = append(seqs, modifier+"-"+strconv.Itoa(i))
	}
	return seqs
}

// RegisterActivation grabs <modifier>-1 .. <modifier>-9 and calls activate
// with the zero-based button position. Sequences that fail to grab are
// logged and skipped; an error is returned only when none could be grabbed.
func (h *Handler) RegisterActivation(modifier string, activate func(index int)) error {
	seqs := ActivationSequences(modifier)
	if len(seqs) == 0 {
		return nil
	}
	var registered int
	for i, seq := range seqs {
		index := i
		if err := h.RegisterFunc(seq, func() { activate(index) }); err != nil {
			h.logger.Warn("failed to grab hotkey", "keys", seq, "error", err)
			continue
		}
		registered++
	}
	if registered == 0 {
		return fmt.Errorf("no activation hotkeys could be grabbed for %q", modifier)
	}
	h.logger.Info("activation hotkeys registered", "modifier", modifier, "count", registered)
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
