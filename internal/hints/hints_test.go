package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they use
//   t.Setenv and replace the package-level IsInContainer variable.

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		ci          string
		noSandbox   string
		bin         string
		contains    []string
		notContains []string
	}{
		{
			name:     "in CI",
			ci:       "true",
			contains: []string{"hint:", "ROD_NO_SANDBOX", "browser.container", "ROD_BROWSER_BIN"},
		},
		{
			name:      "in Docker",
			container: true,
			contains:  []string{"ROD_NO_SANDBOX"},
		},
		{
			name:        "sandbox already disabled",
			container:   true,
			noSandbox:   "1",
			notContains: []string{"ROD_NO_SANDBOX"},
		},
		{
			name:        "browser bin already set",
			bin:         "/usr/bin/chrome",
			notContains: []string{"ROD_BROWSER_BIN", "ROD_NO_SANDBOX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			t.Setenv("CI", tt.ci)
			t.Setenv("GITHUB_ACTIONS", "")
			t.Setenv("GITLAB_CI", "")
			t.Setenv("JENKINS_URL", "")
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.bin)

			hint := ForBrowserConnect()
			for _, s := range tt.contains {
				if !strings.Contains(hint, s) {
					t.Errorf("hint %q missing %q", hint, s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(hint, s) {
					t.Errorf("hint %q should not contain %q", hint, s)
				}
			}
		})
	}
}

func TestForBrowserConnect_AllConfigured(t *testing.T) {
	stubContainer(t, true)
	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chrome")

	if hint := ForBrowserConnect(); hint != "" {
		t.Errorf("expected empty hint when all configured, got %q", hint)
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		paths    []string
		contains string
	}{
		{name: "empty paths", paths: nil, contains: "--config"},
		{name: "user path suggested", paths: []string{"./foo.yaml", "/home/u/.config/go-mdview/foo.yaml"}, contains: "create /home/u/.config/go-mdview/foo.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hint := ForConfigNotFound(tt.paths); !strings.Contains(hint, tt.contains) {
				t.Errorf("expected hint to contain %q, got %q", tt.contains, hint)
			}
		})
	}
}

func TestForStyleNotFound(t *testing.T) {
	t.Parallel()

	if hint := ForStyleNotFound(nil); hint != "" {
		t.Errorf("expected empty hint, got %q", hint)
	}
	if hint := ForStyleNotFound([]string{"dark", "default"}); !strings.Contains(hint, "dark, default") {
		t.Errorf("hint = %q", hint)
	}
}

func TestForUnresolvedLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     int
		last     int
		contains string
	}{
		{name: "empty document", line: 3, last: -1, contains: "no rendered content"},
		{name: "past the end", line: 90, last: 41, contains: "last rendered line 41"},
		{name: "not laid out", line: 10, last: 41, contains: "--settle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hint := ForUnresolvedLine(tt.line, tt.last); !strings.Contains(hint, tt.contains) {
				t.Errorf("ForUnresolvedLine(%d, %d) = %q, want %q", tt.line, tt.last, hint, tt.contains)
			}
		})
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	for _, h := range []string{ForTimeout(), ForOutputFile(), ForUnresolvedLine(1, 0)} {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}
