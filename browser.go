package gotoauth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener points a browser at the authorization URL. Replaceable via
// WithBrowserOpener, mainly for tests and headless environments.
type BrowserOpener func(url string) error

// OpenBrowser opens the URL in the default web browser on Linux, macOS,
// or Windows.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	// Don't wait for the browser process; it outlives the flow.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
