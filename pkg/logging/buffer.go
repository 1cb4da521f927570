package logging

import (
	"bytes"
	"sync"
)

// DefaultCaptureLines is the number of lines GlobalLogCapture keeps.
const DefaultCaptureLines = 64

// LogCapture is an io.Writer that keeps the most recent log lines in a ring.
type LogCapture struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewLogCapture keeps up to size lines.
func NewLogCapture(size int) *LogCapture {
	if size < 1 {
		size = 1
	}
	return &LogCapture{lines: make([]string, size)}
}

// GlobalLogCapture receives the server log and backs the log endpoints.
var GlobalLogCapture = NewLogCapture(DefaultCaptureLines)

// Write implements io.Writer. Each non-empty line of p becomes one entry.
func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		c.lines[c.next] = string(line)
		c.next = (c.next + 1) % len(c.lines)
		if c.next == 0 {
			c.full = true
		}
	}
	return len(p), nil
}

// Last returns the most recent line, or "" when nothing was written.
func (c *LogCapture) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.full && c.next == 0 {
		return ""
	}
	return c.lines[(c.next-1+len(c.lines))%len(c.lines)]
}

// Recent returns up to n lines, oldest first.
func (c *LogCapture) Recent(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.next
	if c.full {
		count = len(c.lines)
	}
	n = min(max(n, 0), count)

	out := make([]string, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, c.lines[(c.next-i+len(c.lines))%len(c.lines)])
	}
	return out
}
