package output

import (
	"log/slog"
	"os"
	"strings"
)

// IsWSL checks if the current environment is Windows Subsystem for Linux
func IsWSL() bool {
	return detectWSLFromData(readProcVersion(), os.Getenv("WSL_DISTRO_NAME"))
}

// detectWSLFromData checks for WSL indicators in the provided data
func detectWSLFromData(procVersion, wslEnv string) bool {
	if wslEnv != "" {
		slog.Debug("WSL detected via environment variable", "distro", wslEnv)
		return true
	}

	procLower := strings.ToLower(procVersion)
	if strings.Contains(procLower, "microsoft") || strings.Contains(procLower, "wsl") {
		slog.Debug("WSL detected via /proc/version")
		return true
	}

	return false
}

func readProcVersion() string {
	content, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("failed to read /proc/version", "error", err)
		return ""
	}
	return string(content)
}

// preferredDevices returns the device backends to try, best first. Under WSL
// malgo's PulseAudio path crackles, so oto goes first there.
func preferredDevices(isWSL bool) []string {
	if isWSL {
		return []string{BackendOto, BackendMalgo}
	}
	return []string{BackendMalgo, BackendOto}
}
