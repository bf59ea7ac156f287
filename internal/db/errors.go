package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op constants map to Redis command names for error context.
const (
	OpDel       = "DEL"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
	OpExists    = "EXISTS"
	OpScan      = "SCAN"
	OpGet       = "GET"
	OpMGet      = "MGET"
	OpSet       = "SET"
	OpSAdd      = "SADD"
	OpSRem      = "SREM"
	OpSMembers  = "SMEMBERS"
	OpZAdd      = "ZADD"
	OpZRange    = "ZRANGE"
	OpRPush     = "RPUSH"
	OpLTrim     = "LTRIM"
	OpLRange    = "LRANGE"
	OpPublish   = "PUBLISH"
	OpSubscribe = "SUBSCRIBE"
	OpEval      = "EVALSHA"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
