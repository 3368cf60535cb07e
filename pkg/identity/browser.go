package identity

import (
	"errors"
	"os/exec"
	"runtime"
)

// OpenBrowser opens u with the system's default web browser.
func OpenBrowser(u string) error {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", u).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u).Start()
	case "darwin":
		return exec.Command("open", u).Start()
	default:
		return errors.New("identity: unsupported OS")
	}
}
