package tool

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// lineWriter forwards complete lines to w as soon as they arrive.
type lineWriter struct {
	w   io.Writer
	buf []byte
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w}
}

func (l *lineWriter) Write(p []byte) (int, error) {
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		if _, err := l.w.Write(l.buf[:i+1]); err != nil {
			return len(p), err
		}
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush writes any trailing partial line.
func (l *lineWriter) Flush() {
	if len(l.buf) > 0 {
		l.w.Write(l.buf)
		l.buf = nil
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// LogFile is a step log that also mirrors to a console writer.
type LogFile struct {
	f *os.File
	io.Writer
}

// CreateLog truncates path and returns a writer teeing into it and console.
// A nil console only writes the file.
func CreateLog(path string, console io.Writer) (*LogFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	var w io.Writer = f
	if console != nil {
		w = io.MultiWriter(console, f)
	}
	return &LogFile{f: f, Writer: w}, nil
}

// Close closes the underlying file.
func (l *LogFile) Close() error {
	return l.f.Close()
}
