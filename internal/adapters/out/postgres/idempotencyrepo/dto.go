// Package idempotencyrepo stores replayable responses keyed by client
// idempotency keys.
package idempotencyrepo

import (
	"encoding/json"
	"time"

	"freight/internal/core/domain/model/idempotency"

	"gorm.io/datatypes"
)

// RecordDTO is a row of idempotency_records. Response is stored as json,
// not jsonb, so the bytes come back exactly as written.
type RecordDTO struct {
	Key         string         `gorm:"type:varchar(128);primaryKey"`
	Scope       string         `gorm:"type:varchar(32);not null"`
	TransferID  int64          `gorm:"not null;index"`
	Fingerprint string         `gorm:"type:char(64);not null"`
	StatusCode  int            `gorm:"type:smallint;not null"`
	Response    datatypes.JSON `gorm:"type:json;not null"`
	RequestID   string         `gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}

func (RecordDTO) TableName() string {
	return "idempotency_records"
}

func fromDomain(r *idempotency.Record) RecordDTO {
	return RecordDTO{
		Key:         string(r.Key()),
		Scope:       string(r.Scope()),
		TransferID:  r.TransferID(),
		Fingerprint: r.Fingerprint(),
		StatusCode:  r.StatusCode(),
		Response:    datatypes.JSON(r.Response()),
		RequestID:   r.RequestID(),
		CreatedAt:   r.CreatedAt(),
	}
}

// toDomain restores the stored bytes verbatim so replays are byte-identical.
func toDomain(dto RecordDTO) *idempotency.Record {
	return idempotency.RestoreRecord(
		idempotency.Key(dto.Key),
		idempotency.Scope(dto.Scope),
		dto.TransferID,
		dto.Fingerprint,
		dto.StatusCode,
		json.RawMessage(dto.Response),
		dto.RequestID,
		dto.CreatedAt,
	)
}
