package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
	"github.com/yz4230/deployboard/internal/retention"
)

const (
	DefaultRedisPrefix  = "deploy:"
	DefaultRedisTimeout = 2 * time.Second

	legacyLogLength = 500
	clearBatchSize  = 500
)

type RedisOptions struct {
	Prefix  string
	Timeout time.Duration
	Policy  retention.Policy
}

// RedisRepository is the remote tier. Layout under the prefix:
//
//	record:<id>      JSON blob
//	index            sorted set, score = deployedAt in ms
//	project:<name>   sorted set of the project's ids, same score
//	projects         set of project names
//	log              legacy list of JSON blobs, newest at the head
type RedisRepository struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	policy  retention.Policy
}

func NewRedisRepository(client redis.UniversalClient, opts RedisOptions) *RedisRepository {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRedisTimeout
	}
	return &RedisRepository{
		client:  client,
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		policy:  opts.Policy,
	}
}

func (r *RedisRepository) Name() string { return "redis" }

func (r *RedisRepository) recordKey(id entity.ID) string { return r.prefix + "record:" + id.String() }
func (r *RedisRepository) indexKey() string              { return r.prefix + "index" }
func (r *RedisRepository) projectKey(name string) string { return r.prefix + "project:" + name }
func (r *RedisRepository) projectsKey() string           { return r.prefix + "projects" }
func (r *RedisRepository) logKey() string                { return r.prefix + "log" }

func (r *RedisRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return backendError(r.Name(), r.client.Ping(ctx).Err())
}

// Put implements DeployRepository. The commands are pipelined but not
// transactional, so an interrupted write may leave some indices behind.
func (r *RedisRepository) Put(ctx context.Context, rec *entity.DeployRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	expired := "(" + strconv.FormatInt(r.policy.Cutoff(time.Now()).UnixMilli(), 10)
	member := redis.Z{
		Score:  float64(rec.DeployedAt.UnixMilli()),
		Member: rec.ID.String(),
	}
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(rec.ID), blob, 0)
		pipe.ZAdd(ctx, r.indexKey(), member)
		pipe.ZAdd(ctx, r.projectKey(rec.ProjectName), member)
		pipe.SAdd(ctx, r.projectsKey(), rec.ProjectName)
		pipe.LPush(ctx, r.logKey(), blob)
		pipe.LTrim(ctx, r.logKey(), 0, legacyLogLength-1)
		pipe.ZRemRangeByScore(ctx, r.indexKey(), "-inf", expired)
		pipe.ZRemRangeByScore(ctx, r.projectKey(rec.ProjectName), "-inf", expired)
		return nil
	})
	return backendError(r.Name(), err)
}

// List implements DeployRepository. The time index, or the per-project
// indices when projects are given, is preferred; the legacy log is read only
// when the indices yield nothing.
func (r *RedisRepository) List(ctx context.Context, max int, projects ...string) ([]*entity.DeployRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	keys := []string{r.indexKey()}
	if len(projects) > 0 {
		keys = lo.Map(lo.Uniq(projects), func(name string, _ int) string { return r.projectKey(name) })
	}

	var ids []string
	for _, key := range keys {
		found, err := r.recentIDs(ctx, key, max)
		if err != nil {
			return nil, backendError(r.Name(), err)
		}
		ids = append(ids, found...)
	}

	records, err := r.loadRecords(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, backendError(r.Name(), err)
	}
	if len(records) == 0 {
		if records, err = r.legacyRecords(ctx); err != nil {
			return nil, backendError(r.Name(), err)
		}
		records = ofProjects(records, projects)
	}
	return newestFirst(records, max), nil
}

// recentIDs reads up to max in-window members of the sorted set at key,
// newest first.
func (r *RedisRepository) recentIDs(ctx context.Context, key string, max int) ([]string, error) {
	cutoff := r.policy.Cutoff(time.Now()).UnixMilli()
	return r.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   strconv.FormatInt(cutoff, 10),
		Max:   "+inf",
		Count: int64(max),
	}).Result()
}

func (r *RedisRepository) loadRecords(ctx context.Context, ids []string) ([]*entity.DeployRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(entity.ID(id))
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*entity.DeployRecord, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if rec := decodeRecord(ctx, s); rec != nil {
			records = append(records, rec)
		} else {
			zerolog.Ctx(ctx).Debug().Str("key", keys[i]).Msg("skipping unreadable record")
		}
	}
	return records, nil
}

func (r *RedisRepository) legacyRecords(ctx context.Context) ([]*entity.DeployRecord, error) {
	blobs, err := r.client.LRange(ctx, r.logKey(), 0, legacyLogLength-1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*entity.DeployRecord, 0, len(blobs))
	for _, blob := range blobs {
		if rec := decodeRecord(ctx, blob); rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Projects implements DeployRepository.
func (r *RedisRepository) Projects(ctx context.Context) ([]string, error) {
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	names, err := r.client.SMembers(tctx, r.projectsKey()).Result()
	if err != nil {
		return nil, backendError(r.Name(), err)
	}
	if len(names) > 0 {
		return sortedNames(names), nil
	}

	records, err := r.List(ctx, legacyLogLength)
	if err != nil {
		return nil, err
	}
	return projectsOf(records), nil
}

// Clear implements DeployRepository. The count is the number of record blobs
// deleted.
func (r *RedisRepository) Clear(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	removed, err := r.deleteMatching(ctx, r.prefix+"record:*")
	if err != nil {
		return removed, backendError(r.Name(), err)
	}
	if _, err := r.deleteMatching(ctx, r.projectKey("*")); err != nil {
		return removed, backendError(r.Name(), err)
	}
	if err := r.client.Del(ctx, r.indexKey(), r.projectsKey(), r.logKey()).Err(); err != nil {
		return removed, backendError(r.Name(), err)
	}
	return removed, nil
}

// deleteMatching removes every key matching pattern in batches and reports
// how many were deleted.
func (r *RedisRepository) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, clearBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, chunk := range lo.Chunk(keys, clearBatchSize) {
		n, err := r.client.Del(ctx, chunk...).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	return removed, nil
}

// decodeRecord returns nil for blobs that are not a usable record.
func decodeRecord(ctx context.Context, blob string) *entity.DeployRecord {
	var rec entity.DeployRecord
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("corrupt record blob")
		return nil
	}
	if rec.ID == "" || rec.DeployedAt.IsZero() {
		return nil
	}
	return &rec
}
