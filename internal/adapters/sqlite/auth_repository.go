package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/audito/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

type apiKeyModel struct {
	TokenHash string    `gorm:"column:token_hash;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Role      string    `gorm:"column:role;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (apiKeyModel) TableName() string {
	return "api_keys"
}

type APIKeyRepository struct {
	db *gormsqlite.DB
}

func NewAPIKeyRepository(db *gormsqlite.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	var model apiKeyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("token_hash = ?", tokenHash).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, fmt.Errorf("find api key: %w", err)
	}

	return domain.APIKey{
		TokenHash: model.TokenHash,
		Name:      model.Name,
		Role:      domain.Role(model.Role),
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
	}, nil
}

func (r *APIKeyRepository) Upsert(ctx context.Context, key domain.APIKey) error {
	if !key.Role.Valid() {
		return fmt.Errorf("upsert api key: %w: role %q", domain.ErrInvalidRequest, key.Role)
	}
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	model := apiKeyModel{
		TokenHash: key.TokenHash,
		Name:      key.Name,
		Role:      string(key.Role),
		Active:    key.Active,
		CreatedAt: createdAt,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "role", "active"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert api key: %w", err)
	}
	return nil
}
