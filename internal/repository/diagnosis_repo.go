package repository

import (
	"context"
	"errors"
	"fmt"
	"growdoctor/internal/model"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DiagnosisCollection holds one document per image hash and language
const DiagnosisCollection = "diagnosis_cache"

// DiagnosisRepo is a mongo-backed diagnosis cache shared by all server processes
type DiagnosisRepo struct {
	coll   *mongo.Collection
	ttl    time.Duration
	logger *slog.Logger
}

// NewDiagnosisRepo creates the repository; call EnsureIndexes once at startup
func NewDiagnosisRepo(db *mongo.Database, ttl time.Duration, logger *slog.Logger) *DiagnosisRepo {
	return newDiagnosisRepo(db.Collection(DiagnosisCollection), ttl, logger)
}

func newDiagnosisRepo(coll *mongo.Collection, ttl time.Duration, logger *slog.Logger) *DiagnosisRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnosisRepo{coll: coll, ttl: ttl, logger: logger}
}

// EnsureIndexes creates the TTL index on createdAt. Mongo's TTL monitor only
// runs about once a minute, so Get also checks expiry itself.
func (r *DiagnosisRepo) EnsureIndexes(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	opts := options.Index().
		SetName("createdAt_ttl").
		SetExpireAfterSeconds(int32(r.ttl / time.Second))
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: opts,
	})
	if err != nil {
		return fmt.Errorf("create ttl index on %s: %w", r.coll.Name(), err)
	}
	r.logger.Info("cache.indexes_ensured", "backend", "mongo", "collection", r.coll.Name(), "ttl", r.ttl)
	return nil
}

func (r *DiagnosisRepo) Get(ctx context.Context, key string) (*model.Diagnosis, error) {
	raw, err := r.coll.FindOne(ctx, bson.M{"_id": key}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry model.CacheEntry
	if err := bson.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("cache.decode_failed", "backend", "mongo", "key", key, "err", err)
		return nil, nil
	}
	if !entry.Complete() {
		r.logger.Warn("cache.decode_failed", "backend", "mongo", "key", key, "err", "incomplete entry")
		return nil, nil
	}
	if r.ttl > 0 && !time.Now().Before(entry.CreatedAt.Add(r.ttl)) {
		return nil, nil
	}
	return &entry.Diagnosis, nil
}

func (r *DiagnosisRepo) Put(ctx context.Context, key string, d model.Diagnosis) error {
	entry := model.CacheEntry{
		Key:       key,
		CreatedAt: time.Now().UTC(),
		Diagnosis: d,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": key}, entry, opts)
	return err
}

func (r *DiagnosisRepo) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lte": now.Add(-r.ttl)}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
