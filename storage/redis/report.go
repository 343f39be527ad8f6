package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/edutok/edutok/core/report"
)

const reportPrefix = "gradeReport:"

var NowFunc = time.Now // mockable

// reportRepository stores snapshots as JSON documents which Redis evicts shortly after they expire.
type reportRepository struct {
	rdb *goredis.Client
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(rdb *goredis.Client) report.Repository {
	return &reportRepository{rdb: rdb}
}

func (repo *reportRepository) CreateReport(ctx context.Context, snap report.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}

	ttl := snap.ExpiresAt.Sub(NowFunc()) + time.Second
	if ttl <= time.Second {
		ttl = time.Second
	}
	ok, err := repo.rdb.SetNX(ctx, reportPrefix+snap.ID, data, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "storing report")
	}
	if !ok {
		return errors.Errorf("report %s already exists", snap.ID)
	}
	return nil
}

func (repo *reportRepository) GetReport(ctx context.Context, id string) (report.Snapshot, error) {
	data, err := repo.rdb.Get(ctx, reportPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return report.Snapshot{}, report.ErrNotFound
		}
		return report.Snapshot{}, errors.Wrap(err, "loading report")
	}

	var snap report.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return report.Snapshot{}, errors.Wrap(err, "decoding report")
	}
	return snap, nil
}

// DeleteExpiredReports removes the expired reports Redis has not evicted yet.
func (repo *reportRepository) DeleteExpiredReports(ctx context.Context, now time.Time) (int, error) {
	var n int
	iter := repo.rdb.Scan(ctx, 0, reportPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := repo.rdb.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			continue
		} else if err != nil {
			return n, errors.Wrap(err, "loading report")
		}

		var snap report.Snapshot
		if err = json.Unmarshal(data, &snap); err != nil || snap.Expired(now) {
			deleted, err := repo.rdb.Del(ctx, key).Result()
			if err != nil {
				return n, errors.Wrap(err, "deleting report")
			}
			n += int(deleted)
		}
	}
	if err := iter.Err(); err != nil {
		return n, errors.Wrap(err, "scanning reports")
	}
	return n, nil
}
