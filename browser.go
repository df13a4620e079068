package glyco

import (
	"fmt"
	"os/exec"
	"runtime"
)

// getBrowserPath determines a browser executable path based on the operating system.
// It checks common installation locations for Chrome and Chromium on macOS, Windows, and Linux.
//
// Returns:
//   - string: Path to a browser executable, or empty string if not found
func getBrowserPath(customPaths []BrowserPathConfig) string {
	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			`/Applications/Google Chrome.app/Contents/MacOS/Google Chrome`,
			`/Applications/Chromium.app/Contents/MacOS/Chromium`,
			`/usr/local/bin/chrome`,   // Alternative common symlink
			`/usr/local/bin/chromium`, // Alternative common symlink for Chromium
		}
		for _, path := range customPaths {
			if path.OS == "darwin" {
				paths = append(paths, path.Path)
			}
		}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
		for _, path := range customPaths {
			if path.OS == "windows" {
				paths = append(paths, path.Path)
			}
		}
	case "linux":
		paths = []string{
			`/usr/bin/google-chrome`,
			`/usr/bin/chromium-browser`,
			`/usr/bin/chromium`,
			`/snap/bin/chromium`,
		}
		for _, path := range customPaths {
			if path.OS == "linux" {
				paths = append(paths, path.Path)
			}
		}
	default:
		return ""
	}

	// Find the first valid path
	for _, path := range paths {
		if _, err := exec.LookPath(path); err == nil {
			return path
		}
	}
	return ""
}

// OpenBrowser opens the local UI in a browser. A known Chrome or Chromium
// install is preferred; otherwise the OS default opener is used.
//
// Returns:
//   - error: Launch error if no opener is available or the process fails to start
func (app *App) OpenBrowser() error {
	url := app.URL()

	if browserPath := getBrowserPath(app.Config.BrowserDirs); browserPath != "" {
		cmd := exec.Command(browserPath, url)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("starting browser : %w", err)
		}
		return nil
	}

	// Fall back to the OS default opener
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported operating system")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting browser : %w", err)
	}
	return nil
}
