package logging

import (
	"path/filepath"
	"time"
)

// LogFilePath names the log file of one host session: <dir>/<name>_<start>.log.
func LogFilePath(logsDir, extensionName string, sessionStart time.Time) string {
	return filepath.Join(logsDir, extensionName+"_"+sessionStart.Format("20060102_150405")+".log")
}
