package x11

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/dockbar/internal/runtimepath"
)

// ErrNoDisplay is returned when no X display can be found.
var ErrNoDisplay = errors.New("no X display found; set display in config (e.g. display: \":1\") or export DISPLAY")

var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// Session is the graphical environment the dock connects to and passes
// on to the applications it starts.
type Session struct {
	Display    string
	XAuthority string
	RuntimeDir string
}

// ResolveSession picks DISPLAY and XAUTHORITY for a process started
// outside the graphical session (for example from a user service).
// Values already in env win, then the configured ones, then the login
// session of the current user, then the newest X socket.
func ResolveSession(env []string, display, xauthority string) (Session, error) {
	s := Session{
		Display:    strings.TrimSpace(envLookup(env, "DISPLAY")),
		XAuthority: strings.TrimSpace(envLookup(env, "XAUTHORITY")),
		RuntimeDir: strings.TrimSpace(envLookup(env, "XDG_RUNTIME_DIR")),
	}
	if s.RuntimeDir == "" {
		if rd, err := runtimepath.Dir(); err == nil {
			s.RuntimeDir = strings.TrimSpace(rd)
		}
	}

	if s.Display == "" {
		s.Display = strings.TrimSpace(display)
	}
	if s.XAuthority == "" {
		s.XAuthority = strings.TrimSpace(xauthority)
	}

	if s.Display == "" || s.XAuthority == "" {
		detectedDisplay, detectedXAuthority := detectSessionX11EnvFn()
		if s.Display == "" {
			s.Display = strings.TrimSpace(detectedDisplay)
		}
		if s.XAuthority == "" {
			s.XAuthority = strings.TrimSpace(detectedXAuthority)
		}
	}

	if s.Display == "" {
		s.Display = detectDisplayFromSocketFn("/tmp/.X11-unix")
	}
	if s.Display == "" {
		return Session{}, ErrNoDisplay
	}

	if s.XAuthority == "" {
		home := strings.TrimSpace(envLookup(env, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				s.XAuthority = candidate
			}
		}
	}
	return s, nil
}

// Environ returns env with the session variables set.
func (s Session) Environ(env []string) []string {
	out := append([]string(nil), env...)
	if s.RuntimeDir != "" {
		out = upsertEnv(out, "XDG_RUNTIME_DIR", s.RuntimeDir)
	}
	out = upsertEnv(out, "DISPLAY", s.Display)
	if s.XAuthority != "" {
		out = upsertEnv(out, "XAUTHORITY", s.XAuthority)
	}
	return out
}

// Export sets XAUTHORITY in the process environment so the X connection
// authenticates with the resolved cookie file.
func (s Session) Export() error {
	if s.XAuthority == "" {
		return nil
	}
	if err := os.Setenv("XAUTHORITY", s.XAuthority); err != nil {
		return fmt.Errorf("set XAUTHORITY: %w", err)
	}
	return nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Display"))
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := strings.TrimSpace(loginctlShowSessionProp(sessionID, "Leader"))
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env, nil
}

// detectDisplayFromSockets returns the highest numbered display socket.
func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

func envLookup(env []string, key string) string {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}

func upsertEnv(env []string, key string, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
