package adapter

import (
	"bufio"
	"bytes"
	"io"
)

const maxEventSize = 16 << 20

// event is one server-sent event.
type event struct {
	Name string
	Data []byte
}

// eventReader splits a text/event-stream body into events. Comment lines
// and fields other than event and data are skipped.
type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &eventReader{scanner: sc}
}

// Next returns the next complete event, or io.EOF when the stream ends.
func (r *eventReader) Next() (event, error) {
	var (
		ev   event
		data [][]byte
		seen bool
	)

	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			if seen {
				ev.Data = bytes.Join(data, []byte("\n"))
				return ev, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))

		switch string(field) {
		case "event":
			ev.Name = string(value)
			seen = true
		case "data":
			data = append(data, bytes.Clone(value))
			seen = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return event{}, err
	}
	return event{}, io.EOF
}
