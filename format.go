package prismlog

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// serializer renders log records into single lines. One instance is owned
// by the listener goroutine; the buffer is reused between records.
type serializer struct {
	buf             []byte
	timestampFormat string
}

// newSerializer creates a serializer instance.
func newSerializer(timestampFormat string) *serializer {
	if timestampFormat == "" {
		timestampFormat = defaultTimestampLayout
	}
	return &serializer{
		buf:             make([]byte, 0, 4096),
		timestampFormat: timestampFormat,
	}
}

// reset clears the serializer buffer for reuse.
func (s *serializer) reset() {
	s.buf = s.buf[:0]
}

// serialize renders a record with the fixed field order:
// timestamp - pid:tid - file:line - name - [LEVEL] - message
// Color wraps only the level token. The returned slice is valid until the
// next serialize call.
func (s *serializer) serialize(record logRecord, colored bool) []byte {
	s.reset()

	s.appendTimestamp(record.TimeStamp)
	s.buf = append(s.buf, " - "...)

	s.buf = strconv.AppendInt(s.buf, int64(record.PID), 10)
	s.buf = append(s.buf, ':')
	s.buf = strconv.AppendInt(s.buf, int64(record.TID), 10)
	s.buf = append(s.buf, " - "...)

	if record.File != "" {
		s.buf = append(s.buf, record.File...)
		s.buf = append(s.buf, ':')
		s.buf = strconv.AppendInt(s.buf, int64(record.Line), 10)
		s.buf = append(s.buf, " - "...)
	}

	s.buf = append(s.buf, record.LoggerName...)
	s.buf = append(s.buf, " - ["...)
	if colored {
		s.buf = append(s.buf, record.Level.color()...)
		s.buf = append(s.buf, record.Level.String()...)
		s.buf = append(s.buf, colorReset...)
	} else {
		s.buf = append(s.buf, record.Level.String()...)
	}
	s.buf = append(s.buf, "] - "...)

	s.appendMessage(record.Message)
	s.buf = append(s.buf, '\n')
	return s.buf
}

// appendTimestamp renders the record time in the configured mode.
func (s *serializer) appendTimestamp(t time.Time) {
	if s.timestampFormat == TimestampNumeric {
		s.buf = strconv.AppendInt(s.buf, t.Unix(), 10)
		s.buf = append(s.buf, '.')
		micros := int64(t.Nanosecond() / 1000)
		// Fixed 6-digit fraction keeps the field width stable
		for div := int64(100000); div > 0; div /= 10 {
			s.buf = append(s.buf, byte('0'+(micros/div)%10))
		}
		return
	}
	s.buf = t.AppendFormat(s.buf, s.timestampFormat)
}

// appendMessage writes the message with control characters escaped.
// Embedded newlines would break the one-record-one-line invariant that
// the whole delivery path depends on.
func (s *serializer) appendMessage(msg string) {
	lenMsg := len(msg)
	for i := 0; i < lenMsg; {
		if c := msg[i]; c < ' ' {
			switch c {
			case '\n':
				s.buf = append(s.buf, '\\', 'n')
			case '\r':
				s.buf = append(s.buf, '\\', 'r')
			case '\t':
				s.buf = append(s.buf, '\\', 't')
			default:
				s.buf = append(s.buf, `\x`...)
				s.buf = append(s.buf, hexChars[c>>4], hexChars[c&0xF])
			}
			i++
		} else {
			start := i
			for i < lenMsg && msg[i] >= ' ' {
				i++
			}
			s.buf = append(s.buf, msg[start:i]...)
		}
	}
}

var hexChars = "0123456789abcdef"

// compactDumper renders values that have no cheap string form.
var compactDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// renderMessage interpolates arguments into the message at emit time.
// With format verbs present the message acts as a Sprintf format; otherwise
// arguments are appended space-separated, structured values going through
// the compact dumper.
func renderMessage(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	if containsVerb(msg) {
		return fmt.Sprintf(msg, args...)
	}

	var b bytes.Buffer
	b.WriteString(msg)
	for _, arg := range args {
		b.WriteByte(' ')
		writeValue(&b, arg)
	}
	return b.String()
}

// containsVerb reports whether the message holds a Sprintf verb ("%%" alone
// does not count).
func containsVerb(msg string) bool {
	for i := 0; i < len(msg)-1; i++ {
		if msg[i] == '%' {
			if msg[i+1] == '%' {
				i++
				continue
			}
			return true
		}
	}
	return false
}

// writeValue converts one argument to its message representation.
func writeValue(b *bytes.Buffer, v any) {
	switch val := v.(type) {
	case string:
		b.WriteString(val)
	case int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(val, 10))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case nil:
		b.WriteString("nil")
	case error:
		b.WriteString(val.Error())
	case fmt.Stringer:
		b.WriteString(val.String())
	default:
		// Structs, maps, pointers, slices: delegate to spew for a compact,
		// deterministic dump.
		var dump bytes.Buffer
		compactDumper.Fdump(&dump, val)
		b.Write(bytes.TrimSpace(dump.Bytes()))
	}
}
