// Package redis is a revocation store backed by redis. Every mutation is a
// single Lua script so the conditional rotate is atomic on the server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"

	goredis "github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every error returned by the redis client.
var ErrUnavailable = errors.New("redis unavailable")

const (
	DefaultPrefix     = "grimoire:"
	defaultPruneBatch = 500
)

// Store implements store.RevocationStore.
type Store struct {
	rdb        goredis.UniversalClient
	prefix     string
	now        func() time.Time
	pruneBatch int
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace. Defaults to DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithClock overrides the clock used for activity checks, revocation stamps
// and pruning.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPruneBatch bounds how many records a single prune script deletes.
func WithPruneBatch(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pruneBatch = n
		}
	}
}

func NewStore(rdb goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		rdb:        rdb,
		prefix:     DefaultPrefix,
		now:        time.Now,
		pruneBatch: defaultPruneBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) recordPrefix() string { return s.prefix + "rt:" }
func (s *Store) recordKey(id string) string { return s.recordPrefix() + id }
func (s *Store) expiryKey() string { return s.prefix + "rt:expiry" }
func (s *Store) userPrefix() string { return s.prefix + "rt:user:" }
func (s *Store) userKey(uid string) string { return s.userPrefix() + uid }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	res, err := persistLua.Run(ctx, s.rdb,
		[]string{s.recordKey(t.TokenID), s.expiryKey(), s.userKey(t.UserID)},
		t.TokenID, t.UserID, t.ExpiresAt.UnixMilli(), created.UnixMilli(),
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if res == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenID string) (domain.RefreshToken, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recordKey(tokenID)).Result()
	if err != nil {
		return domain.RefreshToken{}, unavailable(err)
	}
	if len(fields) == 0 {
		return domain.RefreshToken{}, store.ErrNotFound
	}
	return decodeRecord(tokenID, fields)
}

func (s *Store) IsRefreshTokenActive(ctx context.Context, tokenID string) (bool, error) {
	vals, err := s.rdb.HMGet(ctx, s.recordKey(tokenID), fieldExpiresAt, fieldRevokedAt).Result()
	if err != nil {
		return false, unavailable(err)
	}
	if vals[0] == nil || vals[1] != nil {
		return false, nil
	}

	exp, err := parseMillis(vals[0].(string))
	if err != nil {
		return false, err
	}
	return exp.After(s.now()), nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenID string) error {
	err := revokeLua.Run(ctx, s.rdb, []string{s.recordKey(tokenID)}, s.now().UnixMilli()).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) RevokeAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	n, err := revokeAllLua.Run(ctx, s.rdb,
		[]string{s.userKey(userID)},
		s.now().UnixMilli(), s.recordPrefix(),
	).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (s *Store) RotateRefreshToken(ctx context.Context, oldTokenID string, next domain.RefreshToken) error {
	now := s.now()
	created := next.CreatedAt
	if created.IsZero() {
		created = now
	}

	res, err := rotateLua.Run(ctx, s.rdb,
		[]string{
			s.recordKey(oldTokenID),
			s.recordKey(next.TokenID),
			s.expiryKey(),
			s.userKey(next.UserID),
		},
		now.UnixMilli(), next.TokenID, next.UserID, next.ExpiresAt.UnixMilli(), created.UnixMilli(),
	).Int64()
	if err != nil {
		return unavailable(err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return store.ErrAlreadyExists
	default:
		return store.ErrConflict
	}
}

func (s *Store) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	ids, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]domain.RefreshToken, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // pruned between SMEMBERS and HGETALL
		}
		rec, err := decodeRecord(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].TokenID > out[j].TokenID
	})
	return out, nil
}

// DeleteExpiredRefreshTokens runs the prune script in batches until a batch
// comes back short.
func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	now := s.now().UnixMilli()

	var total int64
	for {
		res, err := pruneLua.Run(ctx, s.rdb,
			[]string{s.expiryKey()},
			now, s.recordPrefix(), s.userPrefix(), s.pruneBatch,
		).Int64Slice()
		if err != nil {
			return total, unavailable(err)
		}
		total += res[0]
		if res[1] < int64(s.pruneBatch) {
			return total, nil
		}
	}
}

func (s *Store) RefreshTokenStats(ctx context.Context) (domain.RefreshTokenStats, error) {
	res, err := statsLua.Run(ctx, s.rdb,
		[]string{s.expiryKey()},
		s.now().UnixMilli(), s.recordPrefix(),
	).Int64Slice()
	if err != nil {
		return domain.RefreshTokenStats{}, unavailable(err)
	}
	return domain.RefreshTokenStats{Total: res[0], Active: res[1], Revoked: res[2]}, nil
}

// RefreshTokens lets the redis store stand in wherever a store.RefreshTokens
// is expected.
func (s *Store) RefreshTokens() store.RefreshTokens { return s }

func decodeRecord(tokenID string, fields map[string]string) (domain.RefreshToken, error) {
	rec := domain.RefreshToken{
		TokenID: tokenID,
		UserID:  fields[fieldUserID],
	}

	var err error
	if rec.ExpiresAt, err = parseMillis(fields[fieldExpiresAt]); err != nil {
		return domain.RefreshToken{}, err
	}
	if rec.CreatedAt, err = parseMillis(fields[fieldCreatedAt]); err != nil {
		return domain.RefreshToken{}, err
	}
	if v, ok := fields[fieldRevokedAt]; ok {
		t, err := parseMillis(v)
		if err != nil {
			return domain.RefreshToken{}, err
		}
		rec.RevokedAt = &t
	}
	if v, ok := fields[fieldReplacedBy]; ok {
		rec.ReplacedByTokenID = &v
	}
	return rec, nil
}

func parseMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: corrupt timestamp %q: %w", v, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
