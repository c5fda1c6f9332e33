package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// MaxLineLength bounds a single header line (sigil, length or simple string).
	MaxLineLength = 64 * 1024

	// MaxBulkLength is the largest bulk string Redis will produce.
	MaxBulkLength = 512 * 1024 * 1024

	// MaxArrayDepth bounds how deeply arrays may nest inside one frame.
	MaxArrayDepth = 512

	readChunkSize = 4096
)

var (
	// ErrIncomplete is returned by Decoder.Next when the buffered bytes hold
	// only a prefix of a frame. Feed more bytes and call Next again.
	ErrIncomplete = errors.New("Reply is incomplete, more input is required")

	// ErrProtocol is matched by every ProtocolError.
	ErrProtocol = errors.New("Protocol error")

	ErrRequestNotArray = errors.New("Request is malformed, it must be an array of bulk strings")
)

// ProtocolError reports a malformed frame. It is fatal to the stream that
// produced it: framing is lost and nothing after it can be trusted.
type ProtocolError struct {
	Reason string
	Line   []byte
}

func (e *ProtocolError) Error() string {
	if len(e.Line) == 0 {
		return fmt.Sprintf("Protocol error: %s", e.Reason)
	}

	return fmt.Sprintf("Protocol error: %s in %q", e.Reason, e.Line)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

func protocolError(reason string, line []byte) error {
	if len(line) > 64 {
		line = line[:64]
	}

	return &ProtocolError{Reason: reason, Line: append([]byte(nil), line...)}
}

// Decoder incrementally decodes RESP frames from bytes fed to it. It never
// blocks: when only part of a frame is buffered Next returns ErrIncomplete and
// remembers how far it got, so elements already decoded are not parsed again
// once Feed supplies the rest.
//
// A Decoder that returned a ProtocolError must not be used again.
type Decoder struct {
	buf []byte

	// pos is where parsing resumes. Bytes before it belong to elements that
	// have already been decoded.
	pos int

	// held counts the bytes fed since the last frame Next returned
	held int

	// open arrays of the frame being decoded, innermost last
	stack []partialArray
}

type partialArray struct {
	elems Array
	want  int64
}

// Feed appends p to the decoder's buffer. p is copied.
func (d *Decoder) Feed(p []byte) {
	// Only compact once the decoded prefix outweighs the rest, which keeps
	// the copying linear in the bytes fed.
	if d.pos > 0 && d.pos >= len(d.buf)-d.pos {
		n := copy(d.buf, d.buf[d.pos:])
		d.buf = d.buf[:n]
		d.pos = 0
	}

	d.buf = append(d.buf, p...)
	d.held += len(p)
}

// Buffered returns the number of bytes fed that are not part of a frame
// returned by Next yet.
func (d *Decoder) Buffered() int {
	return d.held
}

// Next decodes exactly one frame from the buffer.
func (d *Decoder) Next() (Reply, error) {
	for {
		value, count, n, err := parseValue(d.buf[d.pos:])
		if err != nil {
			return nil, err
		}

		d.pos += n

		if count > 0 {
			if len(d.stack) >= MaxArrayDepth {
				return nil, protocolError("arrays nested too deeply", nil)
			}

			// Do not trust the header for the allocation, elements are counted as they arrive.
			capacity := count
			if capacity > 1024 {
				capacity = 1024
			}

			d.stack = append(d.stack, partialArray{elems: make(Array, 0, capacity), want: count})
			continue
		}

		for len(d.stack) > 0 {
			top := &d.stack[len(d.stack)-1]
			top.elems = append(top.elems, value)

			if int64(len(top.elems)) < top.want {
				break
			}

			value = top.elems
			d.stack[len(d.stack)-1] = partialArray{}
			d.stack = d.stack[:len(d.stack)-1]
		}

		if len(d.stack) > 0 {
			continue
		}

		d.held = len(d.buf) - d.pos
		if d.held == 0 {
			d.buf = d.buf[:0]
			d.pos = 0
		}

		return value, nil
	}
}

// parseValue decodes the value at the start of b. For the header of a
// non-empty array it returns no value and the element count instead. n is the
// number of bytes consumed.
func parseValue(b []byte) (value Reply, count int64, n int, err error) {
	line, n, err := readLine(b)
	if err != nil {
		return nil, 0, 0, err
	}

	if len(line) == 0 {
		return nil, 0, 0, protocolError("empty line", b[:n])
	}

	switch line[0] {
	case '+':
		return Status(line[1:]), 0, n, nil

	case '-':
		return Error(line[1:]), 0, n, nil

	case ':':
		number, err := parseNumber(line)
		if err != nil {
			return nil, 0, 0, err
		}

		return Integer(number), 0, n, nil

	case '$':
		length, err := parseNumber(line)
		if err != nil {
			return nil, 0, 0, err
		}

		switch {
		case length == -1:
			return Bulk(nil), 0, n, nil
		case length < -1 || length > MaxBulkLength:
			return nil, 0, 0, protocolError("invalid bulk length", line)
		}

		end := n + int(length)
		if len(b) < end+2 {
			return nil, 0, 0, ErrIncomplete
		}

		if b[end] != '\r' || b[end+1] != '\n' {
			return nil, 0, 0, protocolError("bulk string is not terminated by CRLF", line)
		}

		bulk := make(Bulk, length)
		copy(bulk, b[n:end])

		return bulk, 0, end + 2, nil

	case '*':
		length, err := parseNumber(line)
		if err != nil {
			return nil, 0, 0, err
		}

		switch {
		case length == -1:
			return Array(nil), 0, n, nil
		case length == 0:
			return Array{}, 0, n, nil
		case length < -1:
			return nil, 0, 0, protocolError("invalid array length", line)
		}

		return nil, length, n, nil

	default:
		return nil, 0, 0, protocolError("unknown reply type", line)
	}
}

// readLine returns the line at the start of b without its CRLF, along with
// the number of bytes the line occupies including the CRLF.
func readLine(b []byte) ([]byte, int, error) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		if len(b) > MaxLineLength {
			return nil, 0, protocolError("line too long", b)
		}

		return nil, 0, ErrIncomplete
	}

	if i == 0 || b[i-1] != '\r' {
		return nil, 0, protocolError("line is not terminated by CRLF", b[:i+1])
	}

	return b[:i-1], i + 1, nil
}

func parseNumber(line []byte) (int64, error) {
	value, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return 0, protocolError("invalid number", line)
	}

	return value, nil
}

// Reader reads whole frames from an underlying stream, buffering partial
// frames between reads.
//
// To avoid denial of service attacks, the provided io.Reader should be
// bounded by a deadline or similar when reading from untrusted peers.
type Reader struct {
	r     io.Reader
	dec   Decoder
	chunk []byte

	// err is a read error that arrived together with the bytes that
	// completed the last frame.
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:     r,
		chunk: make([]byte, readChunkSize),
	}
}

// ReadReply blocks until a complete frame has been read.
//
// A clean EOF between frames returns io.EOF; an EOF in the middle of a frame
// returns io.ErrUnexpectedEOF.
func (r *Reader) ReadReply() (Reply, error) {
	for {
		reply, err := r.dec.Next()
		if err == nil {
			return reply, nil
		}

		if !errors.Is(err, ErrIncomplete) {
			return nil, err
		}

		if r.err != nil {
			return nil, r.readErr()
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			r.dec.Feed(r.chunk[:n])
		}

		if err != nil {
			r.err = err
		}
	}
}

func (r *Reader) readErr() error {
	if r.err == io.EOF && r.dec.Buffered() > 0 {
		return io.ErrUnexpectedEOF
	}

	return r.err
}

// ReadRequest reads a frame and interprets it as a request: an array of one
// or more bulk strings.
func (r *Reader) ReadRequest() (Request, error) {
	reply, err := r.ReadReply()
	if err != nil {
		return nil, err
	}

	arr, ok := reply.(Array)
	if !ok || len(arr) == 0 {
		return nil, ErrRequestNotArray
	}

	req := make(Request, len(arr))
	for i, elem := range arr {
		bulk, ok := elem.(Bulk)
		if !ok || bulk == nil {
			return nil, fmt.Errorf("Argument %d is a %s: %w", i, elem.Kind(), ErrRequestNotArray)
		}

		req[i] = bulk
	}

	return req, nil
}
