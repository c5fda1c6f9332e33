// Package render converts replies to JSON for the CLI and the HTTP gateway,
// and reads command arguments back out of JSON request bodies.
//
// Bulk strings become JSON strings and integers become numbers. Nil bulks
// and nil arrays become null. Status and error replies become {"status": "OK"}
// and {"error": "ERR ..."} so they can be told apart from bulk strings. A bulk
// string that is not valid UTF-8 becomes {"base64": "..."}.
package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luma/redwire/protocol"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrNoArgs      = errors.New(`"args" must be a non-empty array`)
)

// Reply renders reply as a JSON value.
func Reply(reply protocol.Reply) ([]byte, error) {
	switch v := reply.(type) {
	case protocol.Status:
		return sjson.SetBytes(nil, "status", string(v))

	case protocol.Error:
		return sjson.SetBytes(nil, "error", string(v))

	case protocol.Integer:
		return strconv.AppendInt(nil, int64(v), 10), nil

	case protocol.Bulk:
		return bulk(v)

	case protocol.Array:
		if v == nil {
			return []byte("null"), nil
		}

		doc := []byte("[]")
		for _, elem := range v {
			raw, err := Reply(elem)
			if err != nil {
				return nil, err
			}

			if doc, err = sjson.SetRawBytes(doc, "-1", raw); err != nil {
				return nil, err
			}
		}

		return doc, nil
	}

	return nil, fmt.Errorf("cannot render %T", reply)
}

// Document wraps a rendered reply as {"reply": ...}.
func Document(reply protocol.Reply) ([]byte, error) {
	raw, err := Reply(reply)
	if err != nil {
		return nil, err
	}

	return sjson.SetRawBytes([]byte("{}"), "reply", raw)
}

// Keys renders a list of keys, optionally with the cursor to resume from.
func Keys(cursor string, keys [][]byte) ([]byte, error) {
	doc := []byte(`{"keys":[]}`)

	var err error
	if cursor != "" {
		if doc, err = sjson.SetBytes(doc, "cursor", cursor); err != nil {
			return nil, err
		}
	}

	for _, key := range keys {
		raw, err := bulk(key)
		if err != nil {
			return nil, err
		}

		if doc, err = sjson.SetRawBytes(doc, "keys.-1", raw); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func bulk(b []byte) ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}

	if !utf8.Valid(b) {
		return sjson.SetBytes(nil, "base64", base64.StdEncoding.EncodeToString(b))
	}

	return quote(string(b))
}

// quote returns s as a JSON string literal.
func quote(s string) ([]byte, error) {
	doc, err := sjson.SetBytes(nil, "s", s)
	if err != nil {
		return nil, err
	}

	return []byte(gjson.GetBytes(doc, "s").Raw), nil
}

// Args reads the "args" array of a JSON body. Strings stay strings, integral
// numbers become int64 and other numbers float64. The first element is the
// command.
func Args(body []byte) (string, []interface{}, error) {
	if !gjson.ValidBytes(body) {
		return "", nil, ErrInvalidJSON
	}

	result := gjson.GetBytes(body, "args")
	if !result.IsArray() {
		return "", nil, ErrNoArgs
	}

	items := result.Array()
	if len(items) == 0 {
		return "", nil, ErrNoArgs
	}

	if items[0].Type != gjson.String || items[0].Str == "" {
		return "", nil, fmt.Errorf("command must be a non-empty string, got %s", items[0].Raw)
	}

	args := make([]interface{}, 0, len(items)-1)
	for i, item := range items[1:] {
		switch item.Type {
		case gjson.String:
			args = append(args, item.Str)

		case gjson.Number:
			if n, err := strconv.ParseInt(item.Raw, 10, 64); err == nil {
				args = append(args, n)
			} else {
				args = append(args, item.Num)
			}

		default:
			return "", nil, fmt.Errorf("argument %d must be a string or number, got %s", i+1, item.Raw)
		}
	}

	return items[0].Str, args, nil
}
