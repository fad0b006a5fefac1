package main

import (
	"os"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-mdview/internal/config"
)

// ciVars are set by the CI systems whose runners need Chrome unsandboxed.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// hostInfo describes the machine Chrome is launched on.
type hostInfo struct {
	Container     bool
	ContainerHint string
	CI            bool
	// NoSandbox is ROD_NO_SANDBOX=1.
	NoSandbox  bool
	BrowserBin string
}

// detectHost reads the container, CI and rod signals of the current process.
func detectHost() hostInfo {
	h := hostInfo{
		NoSandbox:  os.Getenv("ROD_NO_SANDBOX") == "1",
		BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
	}
	h.Container, h.ContainerHint = isContainer()
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			h.CI = true
			break
		}
	}
	return h
}

// sandboxOff reports whether Chrome has to run without its sandbox, and why.
// Custom binaries run unsandboxed too, matching mdview.Browser.
func (h hostInfo) sandboxOff(browser config.BrowserConfig) (bool, string) {
	switch {
	case browser.Container:
		return true, "browser.container"
	case browser.Bin != "" || h.BrowserBin != "":
		return true, "custom browser binary"
	case h.NoSandbox:
		return true, "ROD_NO_SANDBOX=1"
	case h.Container:
		return true, "container: " + h.ContainerHint
	case h.CI:
		return true, "CI"
	}
	return false, ""
}

// chromePath resolves the binary a Browser will launch: the configured bin,
// then ROD_BROWSER_BIN, then rod's lookup of installed browsers. found is
// false when rod would have to download Chromium.
func (h hostInfo) chromePath(configured string) (path string, found bool) {
	if configured != "" {
		return configured, true
	}
	if h.BrowserBin != "" {
		return h.BrowserBin, true
	}
	return launcher.LookPath()
}

// isContainer returns the first container signal found, highest priority
// first.
func isContainer() (bool, string) {
	// Explicit override
	if os.Getenv("MDVIEW_CONTAINER") == "1" {
		return true, "MDVIEW_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman, systemd-nspawn
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}
