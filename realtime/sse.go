package realtime

import (
	"bufio"
	"io"
	"strings"
)

// Frame is one server-sent event as it appeared on the wire.
type Frame struct {
	Name string
	Data string
}

// Scanner splits a text/event-stream body into frames. Frames are
// terminated by a blank line; multiple data lines are joined with "\n".
// Comment lines and the id/retry fields are ignored.
type Scanner struct {
	r     *bufio.Reader
	frame Frame
	err   error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next reads the next frame. It returns false at the end of the stream
// or on a read error; Err tells the two apart.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	var (
		name    string
		data    []string
		hasData bool
	)
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			// A final frame without its blank-line terminator still counts.
			if err == io.EOF && hasData {
				s.frame = Frame{Name: name, Data: strings.Join(data, "\n")}
				return true
			}
			return false
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				s.frame = Frame{Name: name, Data: strings.Join(data, "\n")}
				return true
			}
			name = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
			hasData = true
		}
	}
}

// Frame returns the frame read by the last successful Next.
func (s *Scanner) Frame() Frame {
	return s.frame
}

// Err returns the read error that stopped the scanner, or nil after a
// clean EOF.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
