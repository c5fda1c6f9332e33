package protocol

// Command is the verb of a request, argument 0 on the wire.
type Command string

const (
	AUTH      Command = "AUTH"
	DEL       Command = "DEL"
	DUMP      Command = "DUMP"
	ECHO      Command = "ECHO"
	EXISTS    Command = "EXISTS"
	EXPIRE    Command = "EXPIRE"
	EXPIREAT  Command = "EXPIREAT"
	FLUSHALL  Command = "FLUSHALL"
	FLUSHDB   Command = "FLUSHDB"
	GET       Command = "GET"
	HSCAN     Command = "HSCAN"
	HSET      Command = "HSET"
	INCR      Command = "INCR"
	KEYS      Command = "KEYS"
	LRANGE    Command = "LRANGE"
	MIGRATE   Command = "MIGRATE"
	MOVE      Command = "MOVE"
	OBJECT    Command = "OBJECT"
	PERSIST   Command = "PERSIST"
	PEXPIRE   Command = "PEXPIRE"
	PEXPIREAT Command = "PEXPIREAT"
	PING      Command = "PING"
	PTTL      Command = "PTTL"
	RANDOMKEY Command = "RANDOMKEY"
	RENAME    Command = "RENAME"
	RENAMENX  Command = "RENAMENX"
	RESTORE   Command = "RESTORE"
	RPUSH     Command = "RPUSH"
	SADD      Command = "SADD"
	SCAN      Command = "SCAN"
	SELECT    Command = "SELECT"
	SET       Command = "SET"
	SORT      Command = "SORT"
	SSCAN     Command = "SSCAN"
	TOUCH     Command = "TOUCH"
	TTL       Command = "TTL"
	TYPE      Command = "TYPE"
	UNLINK    Command = "UNLINK"
	ZSCAN     Command = "ZSCAN"
)

// Bytes returns the verb as it is written on the wire.
func (c Command) Bytes() []byte {
	return []byte(c)
}
