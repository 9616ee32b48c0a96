package debug

import (
	"log"
	"os"
)

var enabled = false

func init() {
	enabled = os.Getenv("RUNCUT_DEBUG_DASHBOARD") == "true"
	if enabled {
		log.Println("debug dashboard enabled")
	}
}

// IsEnabled reports whether the dashboard websocket is active.
func IsEnabled() bool {
	return enabled
}

// LogInfo sends an info-level event to the dashboard.
func LogInfo(message string, metadata map[string]any) {
	if !enabled {
		return
	}
	SendLog("backend", "info", message, metadata)
}

// LogWarn sends a warn-level event to the dashboard.
func LogWarn(message string, metadata map[string]any) {
	if !enabled {
		return
	}
	SendLog("backend", "warn", message, metadata)
}

// LogError sends an error-level event to the dashboard.
func LogError(message string, metadata map[string]any) {
	if !enabled {
		return
	}
	SendLog("backend", "error", message, metadata)
}

// ImportProgress sends a progress update for a running import.
func ImportProgress(importID, table string, imported int, done bool) {
	if !enabled {
		return
	}
	SendImportProgress(importID, table, imported, done)
}
