package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/dockbar/internal/appbar"
	"github.com/1broseidon/dockbar/internal/config"
	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/ipc"
	"github.com/1broseidon/dockbar/internal/layout"
	"github.com/1broseidon/dockbar/internal/preview"
	"github.com/1broseidon/dockbar/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: dockbar daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: dockbar daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "buttons":
		os.Exit(runButtons(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "arrange":
		os.Exit(runSimple("arrange", "Reorder buttons interactively in the terminal.", os.Args[2:], func() error {
			return tui.Run(ipc.NewClient())
		}))
	case "update-layout":
		os.Exit(runSimple("update-layout", "Renegotiate the bar position with the shell.", os.Args[2:], ipc.NewClient().UpdateLayout))
	case "edge":
		os.Exit(runEdge(os.Args[2:]))
	case "reload":
		os.Exit(runSimple("reload", "Reload the daemon configuration.", os.Args[2:], ipc.NewClient().Reload))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: dockbar <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the dock (foreground)")
	fmt.Fprintln(w, "  status              Show dock status")
	fmt.Fprintln(w, "  monitors            List monitors")
	fmt.Fprintln(w, "  buttons             List buttons in display order")
	fmt.Fprintln(w, "  move                Move a button onto another")
	fmt.Fprintln(w, "  arrange             Reorder buttons interactively")
	fmt.Fprintln(w, "  update-layout       Renegotiate the bar position")
	fmt.Fprintln(w, "  edge                Dock to another screen edge")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout preview      Preview the button grid in the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'dockbar <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set printing usage lines to stderr.
func newFlagSet(name string, usage ...string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		for _, line := range usage {
			fmt.Fprintln(os.Stderr, line)
		}
		if hasFlags(fs) {
			fmt.Fprintln(os.Stderr, "")
			fs.PrintDefaults()
		}
	}
	return fs
}

func hasFlags(fs *flag.FlagSet) bool {
	n := 0
	fs.VisitAll(func(*flag.Flag) { n++ })
	return n > 0
}

// parseFlags returns -1 to continue, or the exit code.
func parseFlags(fs *flag.FlagSet, args []string, nargs int) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if nargs >= 0 && fs.NArg() != nargs {
		if nargs == 0 {
			fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		} else {
			fmt.Fprintf(os.Stderr, "%s takes %d arguments\n", fs.Name(), nargs)
		}
		fs.Usage()
		return 2
	}
	return -1
}

func runSimple(name, help string, args []string, call func() error) int {
	fs := newFlagSet(name, "Usage: dockbar "+name, "", help)
	if code := parseFlags(fs, args, 0); code >= 0 {
		return code
	}
	if err := call(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "Usage: dockbar status", "", "Show dock status via IPC.")
	if code := parseFlags(fs, args, 0); code >= 0 {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("edge:           %s\n", status.Edge)
	if status.Monitor != "" {
		fmt.Printf("monitor:        %s\n", status.Monitor)
	}
	b := status.Bounds
	fmt.Printf("bounds:         %dx%d+%d+%d\n", b.Width, b.Height, b.X, b.Y)
	fmt.Printf("buttons:        %d in %d groups\n", status.ButtonCount, status.GroupCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runMonitors(args []string) int {
	fs := newFlagSet("monitors", "Usage: dockbar monitors [--json]", "", "List monitors known to the daemon.")
	asJSON := fs.Bool("json", false, "Output JSON")
	if code := parseFlags(fs, args, 0); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data.Monitors)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGEOMETRY\tDPI\tPRIMARY")
	for _, m := range data.Monitors {
		fmt.Fprintf(tw, "%d\t%s\t%dx%d+%d+%d\t%.0f\t%v\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y, m.DPI, m.Primary)
	}
	tw.Flush()
	return 0
}

func runButtons(args []string) int {
	fs := newFlagSet("buttons", "Usage: dockbar buttons [--json]", "", "List buttons in display order.")
	asJSON := fs.Bool("json", false, "Output JSON")
	if code := parseFlags(fs, args, 0); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().ListButtons()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data.Buttons)
	}
	writeButtons(os.Stdout, data.Buttons)
	return 0
}

func writeButtons(w io.Writer, list []ipc.ButtonInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tGROUP\tKEY\tKIND\tTITLE")
	for _, b := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", b.WindowIndex, b.GroupIndex, b.Key, b.Kind, b.Title)
	}
	tw.Flush()
}

func runMove(args []string) int {
	fs := newFlagSet("move",
		"Usage: dockbar move <source-key> <target-key>",
		"",
		"Drop the source button onto the target button. Keys are listed by 'dockbar buttons'.",
		"Buttons of the same group swap places inside the group; otherwise the whole group moves.")
	if code := parseFlags(fs, args, 2); code >= 0 {
		return code
	}

	mv, err := ipc.NewClient().MoveButton(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	kind := "within group"
	if mv.CrossGroup {
		kind = "group"
	}
	fmt.Printf("moved %s: %d -> %d\n", kind, mv.FromIndex, mv.ToIndex)
	return 0
}

func runEdge(args []string) int {
	fs := newFlagSet("edge", "Usage: dockbar edge <left|top|right|bottom>", "", "Dock the bar to another screen edge.")
	if code := parseFlags(fs, args, 1); code >= 0 {
		return code
	}
	if _, err := appbar.ParseEdge(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().SetEdge(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dockbar layout preview [--path PATH] [--count N] [--edge EDGE] [--length PX]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'dockbar layout <command> --help' for command-specific options.")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}
	switch args[0] {
	case "preview":
		return runLayoutPreview(args[1:])
	case "help", "-h", "--help":
		printLayoutUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown layout subcommand: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return 2
	}
}

func runLayoutPreview(args []string) int {
	fs := newFlagSet("preview",
		"Usage: dockbar layout preview [--path PATH] [--count N] [--edge EDGE] [--length PX]",
		"",
		"Show the button grid the configured sizes produce, without a running daemon.")
	path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/dockbar/config.yaml)")
	count := fs.Int("count", 8, "Number of sample buttons")
	edge := fs.String("edge", "", "Edge to preview (default: configured edge)")
	length := fs.Float64("length", 0, "Bar length in logical pixels (default: 1920 for top/bottom, 1080 for left/right)")
	if code := parseFlags(fs, args, 0); code >= 0 {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	if *edge != "" {
		if _, err := appbar.ParseEdge(*edge); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		cfg.Dock.Edge = *edge
	}

	fmt.Print(preview.Render(previewOptions(cfg, *count, *length, preview.TerminalWidth())))
	return 0
}

func previewOptions(cfg *config.Config, count int, length float64, width int) preview.Options {
	opts := cfg.LayoutOptions()
	available := geom.Size{Width: geom.Infinite, Height: geom.Infinite}
	if opts.Orientation == layout.Vertical {
		if length <= 0 {
			length = 1080
		}
		available.Height = length
	} else {
		if length <= 0 {
			length = 1920
		}
		available.Width = length
	}
	return preview.Options{Layout: opts, Available: available, Count: max(count, 0), Width: width}
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  dockbar config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  dockbar config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  dockbar config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/dockbar/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/dockbar/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			_ = printEffective // default
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			for _, f := range res.Files {
				fmt.Printf("# loaded: %s\n", f)
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/dockbar/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceBuiltin:
		if src.Name != "" {
			return "builtin:" + src.Name
		}
		return "builtin"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
