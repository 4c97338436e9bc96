package redis

import goredis "github.com/redis/go-redis/v9"

// Each record is a hash with the fields below. Timestamps are unix
// milliseconds; revoked_at and replaced_by are absent until set.
const (
	fieldUserID     = "user_id"
	fieldExpiresAt  = "expires_at"
	fieldRevokedAt  = "revoked_at"
	fieldReplacedBy = "replaced_by"
	fieldCreatedAt  = "created_at"
)

// KEYS: record, expiry index, user index
// ARGV: token id, user id, expires_at, created_at
const persistScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "user_id", ARGV[2], "expires_at", ARGV[3], "created_at", ARGV[4])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[1])
redis.call("SADD", KEYS[3], ARGV[1])
return 1
`

var persistLua = goredis.NewScript(persistScript)

// KEYS: old record, new record, expiry index, user index
// ARGV: now, new token id, user id, expires_at, created_at
//
// Returns 1 on success, 0 when the old record is not active, -1 when the new
// id is taken.
const rotateScript = `
local now = tonumber(ARGV[1])
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HEXISTS", KEYS[1], "revoked_at") == 1 then
  return 0
end
local exp = tonumber(redis.call("HGET", KEYS[1], "expires_at") or "0")
if exp <= now then
  return 0
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return -1
end
redis.call("HSET", KEYS[1], "revoked_at", ARGV[1], "replaced_by", ARGV[2])
redis.call("HSET", KEYS[2], "user_id", ARGV[3], "expires_at", ARGV[4], "created_at", ARGV[5])
redis.call("ZADD", KEYS[3], ARGV[4], ARGV[2])
redis.call("SADD", KEYS[4], ARGV[2])
return 1
`

var rotateLua = goredis.NewScript(rotateScript)

// KEYS: record
// ARGV: now
const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HEXISTS", KEYS[1], "revoked_at") == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "revoked_at", ARGV[1])
return 1
`

var revokeLua = goredis.NewScript(revokeScript)

// KEYS: user index
// ARGV: now, record key prefix
const revokeAllScript = `
local now = tonumber(ARGV[1])
local n = 0
for _, id in ipairs(redis.call("SMEMBERS", KEYS[1])) do
  local key = ARGV[2] .. id
  if redis.call("EXISTS", key) == 0 then
    redis.call("SREM", KEYS[1], id)
  elseif redis.call("HEXISTS", key, "revoked_at") == 0 then
    local exp = tonumber(redis.call("HGET", key, "expires_at") or "0")
    if exp > now then
      redis.call("HSET", key, "revoked_at", ARGV[1])
      n = n + 1
    end
  end
end
return n
`

var revokeAllLua = goredis.NewScript(revokeAllScript)

// KEYS: expiry index
// ARGV: now, record key prefix, user index prefix, batch size
//
// Deletes up to batch records whose expires_at is strictly before now.
const pruneScript = `
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1], "LIMIT", 0, tonumber(ARGV[4]))
local n = 0
for _, id in ipairs(ids) do
  local key = ARGV[2] .. id
  local uid = redis.call("HGET", key, "user_id")
  n = n + redis.call("DEL", key)
  if uid then
    redis.call("SREM", ARGV[3] .. uid, id)
  end
  redis.call("ZREM", KEYS[1], id)
end
return {n, #ids}
`

var pruneLua = goredis.NewScript(pruneScript)

// KEYS: expiry index
// ARGV: now, record key prefix
const statsScript = `
local now = tonumber(ARGV[1])
local total, active, revoked = 0, 0, 0
for _, id in ipairs(redis.call("ZRANGE", KEYS[1], 0, -1)) do
  local key = ARGV[2] .. id
  local fields = redis.call("HMGET", key, "expires_at", "revoked_at")
  if fields[1] then
    total = total + 1
    if fields[2] then
      revoked = revoked + 1
    elseif tonumber(fields[1]) > now then
      active = active + 1
    end
  end
end
return {total, active, revoked}
`

var statsLua = goredis.NewScript(statsScript)
