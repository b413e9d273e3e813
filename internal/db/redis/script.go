package redis

import (
	"context"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/policy-oracle/policyoracle/internal/db"
)

// casScript writes hash fields only when the current value of a guard field
// is in the allowed set. ARGV layout: guard field, allowed count, allowed
// values..., then field/value pairs. A missing guard field compares as "".
var casScript = rueidis.NewLuaScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur == false then cur = '' end
local n = tonumber(ARGV[2])
local ok = false
for i = 3, 2 + n do
  if cur == ARGV[i] then
    ok = true
    break
  end
end
if not ok then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3 + n))
return 1
`)

// HSetIfFieldIn atomically writes fields only when the current value of
// field is one of allowed. Returns false without writing otherwise.
func (s *Store) HSetIfFieldIn(
	ctx context.Context, key, field string, allowed []string, fields map[string]string,
) (bool, error) {
	argv := make([]string, 0, 2+len(allowed)+2*len(fields))
	argv = append(argv, field, strconv.Itoa(len(allowed)))
	argv = append(argv, allowed...)
	for k, v := range fields {
		argv = append(argv, k, v)
	}

	res, err := casScript.Exec(ctx, s.client, []string{key}, argv).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return res == 1, nil
}
