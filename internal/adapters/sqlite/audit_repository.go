package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atvirokodosprendimai/audito/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

type auditRecordModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EventID         string    `gorm:"column:event_id;not null"`
	Action          string    `gorm:"column:action;not null"`
	ModelUID        string    `gorm:"column:model_uid;not null"`
	ContentTypeName string    `gorm:"column:content_type_name;not null"`
	RecordID        int64     `gorm:"column:record_id;not null"`
	UserName        string    `gorm:"column:user_name;not null"`
	ChangesJSON     string    `gorm:"column:changes_json;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

func (auditRecordModel) TableName() string {
	return "audit_records"
}

// AuditRepository is the append-only audit store. It offers no way to change
// or remove a record; the schema rejects UPDATE and DELETE as well.
type AuditRepository struct {
	db  *gormsqlite.DB
	now func() time.Time
}

func NewAuditRepository(db *gormsqlite.DB) *AuditRepository {
	return &AuditRepository{db: db, now: time.Now}
}

func (r *AuditRepository) Insert(ctx context.Context, rec domain.AuditRecord) (domain.AuditRecord, error) {
	if !rec.Action.Valid() {
		return domain.AuditRecord{}, fmt.Errorf("%w: invalid action %q", domain.ErrStoreWrite, rec.Action)
	}
	changes := rec.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	encoded, err := json.Marshal(changes)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: encode changes: %w", domain.ErrStoreWrite, err)
	}

	model := auditRecordModel{
		EventID:         uuid.NewString(),
		Action:          string(rec.Action),
		ModelUID:        rec.ModelUID,
		ContentTypeName: rec.ContentTypeName,
		RecordID:        rec.RecordID,
		UserName:        rec.UserName,
		ChangesJSON:     string(encoded),
		CreatedAt:       r.now().UTC(),
	}
	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("%w: insert audit record: %w", domain.ErrStoreWrite, err)
	}

	rec.ID = model.ID
	rec.EventID = model.EventID
	rec.CreatedAt = model.CreatedAt
	rec.Changes = changes
	return rec, nil
}

func (r *AuditRepository) List(ctx context.Context, page, pageSize int) (domain.AuditPage, error) {
	var (
		total int64
		rows  []auditRecordModel
		meta  domain.Pagination
	)
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Model(&auditRecordModel{}).Count(&total).Error; err != nil {
			return err
		}
		meta = domain.NewPagination(page, pageSize, total)
		if int64(meta.Offset()) >= total {
			return nil
		}
		return tx.Order("created_at DESC").
			Order("id DESC").
			Offset(meta.Offset()).
			Limit(meta.PageSize).
			Find(&rows).Error
	})
	if err != nil {
		return domain.AuditPage{}, fmt.Errorf("%w: list audit records: %w", domain.ErrStoreRead, err)
	}

	records := make([]domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toAuditRecord(row)
		if err != nil {
			return domain.AuditPage{}, err
		}
		records = append(records, rec)
	}
	return domain.AuditPage{Records: records, Pagination: meta}, nil
}

func (r *AuditRepository) Get(ctx context.Context, id int64) (domain.AuditRecord, error) {
	var row auditRecordModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AuditRecord{}, domain.ErrNotFound
		}
		return domain.AuditRecord{}, fmt.Errorf("%w: get audit record: %w", domain.ErrStoreRead, err)
	}
	return toAuditRecord(row)
}

func toAuditRecord(row auditRecordModel) (domain.AuditRecord, error) {
	changes := map[string]any{}
	if row.ChangesJSON != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(row.ChangesJSON)))
		dec.UseNumber()
		if err := dec.Decode(&changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("%w: decode changes of audit record %d: %w", domain.ErrStoreRead, row.ID, err)
		}
	}
	return domain.AuditRecord{
		ID:              row.ID,
		EventID:         row.EventID,
		Action:          domain.Action(row.Action),
		ModelUID:        row.ModelUID,
		ContentTypeName: row.ContentTypeName,
		RecordID:        row.RecordID,
		UserName:        row.UserName,
		Changes:         changes,
		CreatedAt:       row.CreatedAt.UTC(),
	}, nil
}
