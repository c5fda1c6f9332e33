package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrEmptyRequest = errors.New("Request is empty, it must contain at least a command")

	Terminal = []byte("\r\n")
)

// EncodeRequest serialises req as a RESP multi-bulk frame:
//
//	*<argc>\r\n
//	$<len>\r\n<arg>\r\n   (once per argument)
func EncodeRequest(req Request) ([]byte, error) {
	if len(req) == 0 {
		return nil, ErrEmptyRequest
	}

	size := 16
	for _, arg := range req {
		size += len(arg) + 16
	}

	return AppendRequest(make([]byte, 0, size), req), nil
}

// AppendRequest appends the encoded form of req to dst.
func AppendRequest(dst []byte, req Request) []byte {
	dst = appendHeader(dst, '*', int64(len(req)))
	for _, arg := range req {
		dst = appendBulk(dst, arg)
	}

	return dst
}

func WriteRequest(w io.Writer, req Request) error {
	b, err := EncodeRequest(req)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// AppendReply appends the encoded form of reply to dst. Servers use this to
// answer requests.
func AppendReply(dst []byte, reply Reply) ([]byte, error) {
	switch r := reply.(type) {
	case Status:
		dst = append(dst, '+')
		dst = append(dst, r...)
		return append(dst, Terminal...), nil

	case Error:
		dst = append(dst, '-')
		dst = append(dst, r...)
		return append(dst, Terminal...), nil

	case Integer:
		return appendHeader(dst, ':', int64(r)), nil

	case Bulk:
		if r == nil {
			return appendHeader(dst, '$', -1), nil
		}
		return appendBulk(dst, r), nil

	case Array:
		if r == nil {
			return appendHeader(dst, '*', -1), nil
		}

		dst = appendHeader(dst, '*', int64(len(r)))
		for _, elem := range r {
			var err error
			if dst, err = AppendReply(dst, elem); err != nil {
				return nil, err
			}
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("Cannot encode reply of type %T", reply)
	}
}

func WriteReply(w io.Writer, reply Reply) error {
	b, err := AppendReply(nil, reply)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

func appendHeader(dst []byte, sigil byte, n int64) []byte {
	dst = append(dst, sigil)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, Terminal...)
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = appendHeader(dst, '$', int64(len(b)))
	dst = append(dst, b...)
	return append(dst, Terminal...)
}
