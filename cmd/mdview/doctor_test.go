package main

// Notes:
// - Tests go through runDoctorCmd and its JSON output, or call runDoctor
//   with a fixed hostInfo. Chrome lookup depends on the machine, so only its
//   consistency with the status is asserted.
// - Container detection tests modify environment variables and cannot use
//   t.Parallel(). Signals below /.dockerenv in priority are skipped when
//   that file exists on the host.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	mdview "github.com/alnah/go-mdview"
)

func runDoctorJSON(t *testing.T) (*doctorResult, int) {
	t.Helper()

	var stdout bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}}
	code := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}
	return &result, code
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - JSON structure and exit code
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	result, code := runDoctorJSON(t)

	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s, want %s/%s", result.Env.OS, result.Env.Arch, runtime.GOOS, runtime.GOARCH)
	}

	switch result.Status {
	case "errors":
		if code != ExitGeneral {
			t.Errorf("exit code = %d for errors status, want %d", code, ExitGeneral)
		}
	case "ready", "warnings":
		if code != ExitSuccess {
			t.Errorf("exit code = %d for %s status, want %d", code, result.Status, ExitSuccess)
		}
	default:
		t.Errorf("status = %q, want ready/warnings/errors", result.Status)
	}

	if len(result.System.Styles) != len(mdview.StyleNames()) {
		t.Errorf("styles = %v, want %v", result.System.Styles, mdview.StyleNames())
	}
	if result.System.PoolSize < 1 {
		t.Errorf("pool size = %d, want >= 1", result.System.PoolSize)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput - Section headers
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	runDoctorCmd(nil, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})
	output := stdout.String()

	for _, section := range []string{"mdview doctor", "Chrome/Chromium", "Environment", "Scroll sync", "Lock window:", "System", "Styles:", "Status:"} {
		if !strings.Contains(output, section) {
			t.Errorf("output should contain %q", section)
		}
	}
	if !strings.Contains(output, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Error("output should contain the platform")
	}
}

func TestRunDoctorCmd_UnknownFlag(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	code := runDoctorCmd([]string{"--bogus"}, &Environment{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_ContainerDetection - Container signals
// ---------------------------------------------------------------------------

func cleanContainerEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{"MDVIEW_CONTAINER", "KUBERNETES_SERVICE_HOST", "container"} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestRunDoctorCmd_ContainerDetection(t *testing.T) {
	_, dockerenv := os.Stat("/.dockerenv")
	hostInDocker := dockerenv == nil

	tests := []struct {
		name     string
		envVar   string
		envVal   string
		wantHint string
		belowFS  bool
	}{
		{"explicit override", "MDVIEW_CONTAINER", "1", "MDVIEW_CONTAINER=1", false},
		{"podman", "container", "podman", "container=podman", true},
		{"kubernetes", "KUBERNETES_SERVICE_HOST", "10.0.0.1", "KUBERNETES_SERVICE_HOST", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.belowFS && hostInDocker {
				t.Skip("/.dockerenv takes priority on this host")
			}
			cleanContainerEnv(t)
			t.Setenv(tt.envVar, tt.envVal)

			result, _ := runDoctorJSON(t)

			if !result.Env.Container {
				t.Error("container should be detected")
			}
			if result.Env.ContainerHint != tt.wantHint {
				t.Errorf("ContainerHint = %q, want %q", result.Env.ContainerHint, tt.wantHint)
			}
		})
	}
}

func TestRunDoctor_SandboxFollowsHost(t *testing.T) {
	t.Parallel()

	container := hostInfo{Container: true, ContainerHint: "MDVIEW_CONTAINER=1"}
	result := runDoctor(container, "")

	if result.Chrome.Sandbox {
		t.Error("sandbox should be disabled in a container")
	}
	if result.Chrome.SandboxOff != "container: MDVIEW_CONTAINER=1" {
		t.Errorf("SandboxOff = %q", result.Chrome.SandboxOff)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "sandbox") {
			t.Errorf("unexpected sandbox warning: %s", w)
		}
	}

	if result := runDoctor(hostInfo{}, ""); !result.Chrome.Sandbox {
		t.Errorf("sandbox disabled on a plain host (%s)", result.Chrome.SandboxOff)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Config - MDVIEW_CONFIG validation
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Config(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mdview.yaml")
		if err := os.WriteFile(path, []byte("sync:\n  lockDurationMs: 200\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MDVIEW_CONFIG", path)

		result, _ := runDoctorJSON(t)

		if result.Env.Config != path {
			t.Errorf("Config = %q, want %q", result.Env.Config, path)
		}
		if result.Sync.LockDurationMs != 200 || result.Sync.DebounceMs != 0 {
			t.Errorf("Sync = %+v, want lock 200 debounce 0", result.Sync)
		}
		for _, e := range result.Errors {
			if strings.Contains(e, "MDVIEW_CONFIG") {
				t.Errorf("unexpected config error: %s", e)
			}
		}
	})

	t.Run("invalid config is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mdview.yaml")
		if err := os.WriteFile(path, []byte("sync:\n  lockDurationMs: -5\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MDVIEW_CONFIG", path)

		result, code := runDoctorJSON(t)

		if result.Status != "errors" || code != ExitGeneral {
			t.Errorf("status = %q, code = %d; want errors, %d", result.Status, code, ExitGeneral)
		}
	})
}
