package x11

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func stubDetectFns(t *testing.T, detectSession func() (string, string), detectSocket func(string) string) {
	t.Helper()
	origSession := detectSessionX11EnvFn
	origSocket := detectDisplayFromSocketFn
	detectSessionX11EnvFn = detectSession
	detectDisplayFromSocketFn = detectSocket
	t.Cleanup(func() {
		detectSessionX11EnvFn = origSession
		detectDisplayFromSocketFn = origSocket
	})
}

func TestResolveSession_PrefersEnvironment(t *testing.T) {
	stubDetectFns(t,
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)

	env := []string{"HOME=" + t.TempDir(), "DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing", "XDG_RUNTIME_DIR=/run/user/1000"}
	s, err := ResolveSession(env, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Display != ":7" || s.XAuthority != "/tmp/xauth-existing" || s.RuntimeDir != "/run/user/1000" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSession_ConfigThenHomeXAuthority(t *testing.T) {
	stubDetectFns(t,
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	s, err := ResolveSession([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Display != ":1" || s.XAuthority != xauth {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSession_DetectedValues(t *testing.T) {
	stubDetectFns(t,
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return "" },
	)

	s, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Display != ":5" || s.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestResolveSession_SocketFallbackAndError(t *testing.T) {
	stubDetectFns(t,
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)
	s, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil || s.Display != ":3" {
		t.Fatalf("expected socket display, got %+v (%v)", s, err)
	}

	stubDetectFns(t,
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)
	if _, err := ResolveSession([]string{"HOME=" + t.TempDir()}, "", ""); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("expected ErrNoDisplay, got %v", err)
	}
}

func TestSessionEnviron(t *testing.T) {
	s := Session{Display: ":2", XAuthority: "/tmp/cookie", RuntimeDir: "/run/user/1000"}
	base := []string{"PATH=/usr/bin", "DISPLAY=:0"}
	env := s.Environ(base)

	if got := envLookup(env, "DISPLAY"); got != ":2" {
		t.Fatalf("DISPLAY = %q", got)
	}
	if got := envLookup(env, "XAUTHORITY"); got != "/tmp/cookie" {
		t.Fatalf("XAUTHORITY = %q", got)
	}
	if base[1] != "DISPLAY=:0" {
		t.Fatalf("input env must not be modified")
	}
	if !strings.HasPrefix(env[0], "PATH=") {
		t.Fatalf("expected other variables kept, got %v", env)
	}
}

func TestDetectDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if got := detectDisplayFromSockets(dir); got != ":2" {
		t.Fatalf("detectDisplayFromSockets = %q, want %q", got, ":2")
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSessionX11Env_ReadsLeaderEnviron(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	t.Cleanup(func() {
		runCommandOutputFn = origRun
		readFileFn = origRead
	})

	uid := strconv.Itoa(os.Getuid())
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch {
		case args[0] == "list-sessions":
			return "4 " + uid + " user seat0\n", nil
		case args[len(args)-2] == "Display":
			return ":0\n", nil
		case args[len(args)-2] == "Leader":
			return "1234\n", nil
		}
		return "", errors.New("unexpected")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/1234/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/1000/gdm/Xauthority\x00"), nil
	}

	d, xauth := detectSessionX11Env()
	if d != ":1" || xauth != "/run/user/1000/gdm/Xauthority" {
		t.Fatalf("got %q %q", d, xauth)
	}
}
