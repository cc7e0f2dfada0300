package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLoggerConfig holds the rotation policy for the daemon's log file.
type FileLoggerConfig struct {
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`    // megabytes
	MaxBackups int    `json:"max_backups"` // number of backup files
	MaxAge     int    `json:"max_age"`     // days
	Compress   bool   `json:"compress"`    // compress backup files
}

// SetupFileLogger routes the standard logger to both stdout and a
// size-rotated file, creating the log directory if needed.
func SetupFileLogger(config FileLoggerConfig) error {
	if config.Filename == "" {
		return fmt.Errorf("log filename cannot be empty")
	}
	if config.MaxSize <= 0 {
		return fmt.Errorf("log max_size must be positive, got %d", config.MaxSize)
	}

	logDir := filepath.Dir(config.Filename)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   config.Filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	log.SetOutput(io.MultiWriter(os.Stdout, fileLogger))

	log.Printf("file logging configured: %s (max_size: %dMB, max_backups: %d, max_age: %d days, compress: %t)",
		config.Filename, config.MaxSize, config.MaxBackups, config.MaxAge, config.Compress)

	return nil
}
