package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/dockbar/internal/buttons"
	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/platform"
)

// WindowLister returns the current taskbar-visible windows.
type WindowLister func() ([]platform.Window, error)

// WindowListerFromBackend adapts a platform backend.
func WindowListerFromBackend(b platform.Backend) WindowLister {
	return b.Windows
}

// ApplyFunc hands a fresh set of records to the button collection. It is
// responsible for running on the goroutine that owns the collection.
type ApplyFunc func(records []buttons.Record)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Sources is the configuration slice the reconciler turns into buttons.
type Sources struct {
	Pinned   []config.PinnedApp
	Grouping config.GroupingMode
	Exclude  []string
}

// SourcesFromConfig extracts the button source settings from cfg.
func SourcesFromConfig(cfg *config.Config) Sources {
	return Sources{
		Pinned:   append([]config.PinnedApp(nil), cfg.Pinned...),
		Grouping: cfg.Grouping,
		Exclude:  append([]string(nil), cfg.ExcludeClasses...),
	}
}

// Reconciler periodically lists windows and pinned apps and syncs the
// button collection with them.
type Reconciler struct {
	interval    time.Duration
	listWindows WindowLister
	apply       ApplyFunc
	logger      *slog.Logger

	mu      sync.Mutex
	sources Sources
	kick    chan struct{}
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, sources Sources, listWindows WindowLister, apply ApplyFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reconciler{
		interval:    interval,
		listWindows: listWindows,
		apply:       apply,
		logger:      logger,
		sources:     sources,
		kick:        make(chan struct{}, 1),
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		case <-r.kick:
			r.reconcile()
		}
	}
}

// UpdateSources swaps the pinned apps and grouping rules and schedules
// an immediate pass.
func (r *Reconciler) UpdateSources(s Sources) {
	r.mu.Lock()
	r.sources = s
	r.mu.Unlock()
	r.Trigger()
}

// Trigger schedules a pass on the Run goroutine without waiting for it.
func (r *Reconciler) Trigger() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	windows, err := r.listWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}

	r.mu.Lock()
	sources := r.sources
	r.mu.Unlock()

	records := BuildRecords(windows, sources)
	r.apply(records)
}

// BuildRecords converts pinned apps and windows into button records.
// Pinned apps come first in configuration order, windows follow in
// client list order. Excluded classes produce no window buttons.
func BuildRecords(windows []platform.Window, s Sources) []buttons.Record {
	records := make([]buttons.Record, 0, len(s.Pinned)+len(windows))
	for i := range s.Pinned {
		p := s.Pinned[i]
		app := &buttons.App{Name: p.Name, Class: p.Class, Command: p.Command, Icon: p.Icon}
		src := buttons.Source{Kind: buttons.SourcePinned, App: app}
		records = append(records, buttons.Record{
			Title:    p.Name,
			Icon:     p.Icon,
			GroupKey: groupKey(s.Grouping, p.Class, src),
			Source:   src,
		})
	}

	for _, w := range windows {
		if excluded(s.Exclude, w.Class) {
			continue
		}
		src := buttons.Source{Kind: buttons.SourceWindow, WindowID: uint32(w.ID)}
		title := w.Title
		if title == "" {
			title = w.Class
		}
		records = append(records, buttons.Record{
			Title:    title,
			GroupKey: groupKey(s.Grouping, w.Class, src),
			Source:   src,
		})
	}
	return records
}

func groupKey(mode config.GroupingMode, class string, src buttons.Source) string {
	class = strings.ToLower(strings.TrimSpace(class))
	if mode == config.GroupingNone || class == "" {
		return src.Key()
	}
	return "class:" + class
}

func excluded(classes []string, class string) bool {
	for _, ex := range classes {
		if strings.EqualFold(ex, class) {
			return true
		}
	}
	return false
}
