package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"gorm.io/gorm/clause"
)

// Store is one physical location. The original tool kept "current store"
// as ambient session state; here every operation takes the store code
// explicitly.
type Store struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:30;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStore struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

func UpsertStore(ctx context.Context, input *NewStore) (*Store, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, errors.New("store code is required")
	}
	active := true
	store := Store{
		Code:     strings.TrimSpace(input.Code),
		Name:     input.Name,
		Address:  input.Address,
		IsActive: &active,
	}
	db := config.GetDB()
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "address", "updated_at"}),
		}).
		Create(&store).Error
	if err != nil {
		return nil, err
	}
	return GetStore(ctx, store.Code)
}

func GetStore(ctx context.Context, code string) (*Store, error) {
	return utils.FetchModelByCode[Store](ctx, code)
}

func ValidateStoreCode(ctx context.Context, code string) error {
	return utils.ValidateResourceCode[Store](ctx, code)
}
