package logger

import (
	"fmt"
	"io"
	"os"
)

// fileSink appends encoded lines to the run log. The file is opened per write
// so that a removed log directory is noticed instead of silently recreated.
type fileSink struct {
	dir     string
	path    string
	console io.Writer
}

func (s *fileSink) Write(p []byte) (int, error) {
	if _, err := os.Stat(s.dir); err != nil {
		fmt.Fprintf(s.console, "Error: Invalid path to run log (%s)\n", s.path)
		return len(p), nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, FilePerm)
	if err != nil {
		fmt.Fprintf(s.console, "Error writing to %s\n", s.path)
		return len(p), nil
	}
	defer f.Close()

	if _, err := f.Write(p); err != nil {
		fmt.Fprintf(s.console, "Error writing to %s\n", s.path)
		return len(p), nil
	}
	// umask may have narrowed the mode on create.
	_ = os.Chmod(s.path, FilePerm)
	return len(p), nil
}

func (s *fileSink) Sync() error {
	return nil
}
