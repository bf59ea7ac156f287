package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// setTaggedScript stores ARGV[1] at KEYS[1] for ARGV[2] ms and registers the key
// in every tag set KEYS[2..], extending a tag set's TTL to cover the new key.
var setTaggedScript = rueidis.NewLuaScript(`
local ttl = tonumber(ARGV[2])
redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
for i = 2, #KEYS do
  redis.call('SADD', KEYS[i], KEYS[1])
  if redis.call('PTTL', KEYS[i]) < ttl then
    redis.call('PEXPIRE', KEYS[i], ttl)
  end
end
return 1
`)

// delTaggedScript deletes every member key of the tag sets KEYS[1..] and the sets.
var delTaggedScript = rueidis.NewLuaScript(`
local n = 0
for i = 1, #KEYS do
  local members = redis.call('SMEMBERS', KEYS[i])
  for j = 1, #members do
    n = n + redis.call('DEL', members[j])
  end
  redis.call('DEL', KEYS[i])
end
return n
`)

// SetTagged stores value at key and indexes it under tagKeys in one atomic script.
// Keys are touched from the script, so all of them must live on one node.
func (s *Store) SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tagKeys []string) error {
	keys := make([]string, 0, 1+len(tagKeys))
	keys = append(keys, key)
	keys = append(keys, tagKeys...)
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	args := []string{string(value), strconv.FormatInt(ms, 10)}
	if err := setTaggedScript.Exec(ctx, s.client, keys, args).Error(); err != nil {
		return &db.Error{Op: db.OpEval, Err: err}
	}
	return nil
}

// DelTagged removes every key registered under tagKeys and returns how many were deleted.
func (s *Store) DelTagged(ctx context.Context, tagKeys []string) (int64, error) {
	if len(tagKeys) == 0 {
		return 0, nil
	}
	n, err := delTaggedScript.Exec(ctx, s.client, tagKeys, nil).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpEval, Err: err}
	}
	return n, nil
}
