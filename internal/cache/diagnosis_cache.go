package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"growdoctor/internal/model"
	"time"
)

// DiagnosisCache stores normalized diagnoses by image hash and language.
// Get returns nil, nil on a miss; Put overwrites (last writer wins).
type DiagnosisCache interface {
	Get(ctx context.Context, key string) (*model.Diagnosis, error)
	Put(ctx context.Context, key string, d model.Diagnosis) error
	EvictExpired(ctx context.Context, now time.Time) (int, error)
}

// ImageHash is the hex SHA-256 of the raw upload bytes
func ImageHash(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Key identifies a diagnosis: the same photo in another language is a separate entry
func Key(image []byte, lang string) string {
	return ImageHash(image) + ":" + lang
}
