package redis

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// TextDecoder turns a raw bulk string into UTF-8 text.
type TextDecoder interface {
	Decode(b []byte) ([]byte, error)
}

type TextDecoderFunc func(b []byte) ([]byte, error)

func (f TextDecoderFunc) Decode(b []byte) ([]byte, error) {
	return f(b)
}

var ErrInvalidText = errors.New("bulk string is not valid text in the requested encoding")

// ReadOption configures how a command returns bulk strings.
type ReadOption func(*readOptions)

type readOptions struct {
	decoder TextDecoder
	err     error
}

// WithEncoding decodes bulk string results as text in the named encoding
// (an IANA charset name such as "utf-8" or "iso-8859-1"). Without it results
// are raw bytes.
func WithEncoding(name string) ReadOption {
	return func(o *readOptions) {
		dec, err := lookupEncoding(name)
		if err != nil {
			o.err = err
			return
		}

		o.decoder = dec
	}
}

// WithDecoder decodes bulk string results with d.
func WithDecoder(d TextDecoder) ReadOption {
	return func(o *readOptions) {
		o.decoder = d
	}
}

func newReadOptions(opts []ReadOption) *readOptions {
	o := &readOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *readOptions) decode(b []byte) ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}

	if o.decoder == nil || b == nil {
		return b, nil
	}

	return o.decoder.Decode(b)
}

func (o *readOptions) decodeAll(items [][]byte) ([][]byte, error) {
	if o.err != nil {
		return nil, o.err
	}

	if o.decoder == nil {
		return items, nil
	}

	for i, item := range items {
		text, err := o.decode(item)
		if err != nil {
			return nil, err
		}

		items[i] = text
	}

	return items, nil
}

func lookupEncoding(name string) (TextDecoder, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, &CommandError{Kind: ArgumentValue, Detail: fmt.Sprintf("unknown encoding %q", name)}
	}

	if enc == unicode.UTF8 {
		return TextDecoderFunc(decodeUTF8), nil
	}

	return charsetDecoder{enc}, nil
}

// decodeUTF8 only validates, the x/text UTF-8 decoder would silently
// replace invalid sequences.
func decodeUTF8(b []byte) ([]byte, error) {
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: utf-8", ErrInvalidText)
	}

	return b, nil
}

type charsetDecoder struct {
	enc encoding.Encoding
}

func (c charsetDecoder) Decode(b []byte) ([]byte, error) {
	text, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidText, err)
	}

	return text, nil
}
