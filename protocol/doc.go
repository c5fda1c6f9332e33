// Package protocol implements encoding and decoding of RESP, the REdis
// Serialization Protocol, as spoken between a client and a Redis compatible
// server.
//
// - `Request` - An argument vector sent by a client. Argument 0 is the command.
// - `Reply` - A single frame sent by the server in response to a request.
//
// === General Syntax
//
// - lines are `\r\n` delimited
// - every frame starts with a one byte sigil that identifies its type
//
// === Requests
//
// Clients always send requests as an array of bulk strings, regardless of the
// type of each argument. Numbers are sent as their decimal text.
//
//	```
//	  *3\r\n
//	  $3\r\n
//	  SET\r\n
//	  $3\r\n
//	  key\r\n
//	  $5\r\n
//	  value\r\n
//	```
//
// === Replies
//
//	```
//	  +OK\r\n                  status
//	  -ERR no such key\r\n     error
//	  :42\r\n                  integer
//	  $5\r\nhello\r\n          bulk string
//	  $-1\r\n                  nil bulk string
//	  *2\r\n:1\r\n:2\r\n       array, elements are themselves replies
//	  *-1\r\n                  nil array
//	```
//
// RESP replies carry no request ID. A server answers requests on a connection
// strictly in the order they were sent, so correlating replies with requests
// is the job of whoever owns the connection.
//
// === Partial frames
//
// The Decoder never blocks. When only a prefix of a frame has arrived Next
// returns ErrIncomplete, keeps the prefix buffered, and decodes the whole frame
// once Feed has supplied the remaining bytes. A malformed frame is reported as
// a ProtocolError, after which the stream cannot be resynchronised.
package protocol
