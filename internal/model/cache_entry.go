package model

import "time"

// CacheEntry is a stored diagnosis for one image hash and language
type CacheEntry struct {
	Key       string    `json:"key" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	Diagnosis Diagnosis `json:"diagnosis" bson:"diagnosis"`
}

// Complete reports whether the entry carries a finished diagnosis.
// Every stored diagnosis has a main problem and a traffic light.
func (e CacheEntry) Complete() bool {
	return e.Diagnosis.MainProblem != "" && e.Diagnosis.SeverityIndicator.Valid()
}
