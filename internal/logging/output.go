package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewOutput returns a rotating file writer for path, or stdout when path is empty.
// If the log directory can't be created we fall back to stdout and return the error.
func NewOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return os.Stdout, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		Compress:   true,
		LocalTime:  true,
	}, nil
}
