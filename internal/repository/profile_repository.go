package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-tracker/internal/model"
)

// ProfileRepository is the gamification ledger: one row, id 1.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile, or the default profile when no credit happened yet.
func (r *ProfileRepository) Get(ctx context.Context) (model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).First(&profile, model.ProfileID).Error
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultProfile(), nil
	default:
		return model.Profile{}, fmt.Errorf("find profile: %w", err)
	}
}

// Credit adds amount XP and recomputes the level in a single upsert, so
// concurrent credits cannot overwrite each other.
func (r *ProfileRepository) Credit(ctx context.Context, amount int) (model.Profile, error) {
	if amount < 0 {
		return model.Profile{}, fmt.Errorf("credit profile: negative amount %d", amount)
	}

	var profile model.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.Profile{
			ID:        model.ProfileID,
			XP:        amount,
			Level:     model.LevelFor(amount),
			RankTitle: model.DefaultRankTitle,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "xp"}, Value: gorm.Expr("user_profile.xp + excluded.xp")},
				{Column: clause.Column{Name: "level"}, Value: gorm.Expr("(user_profile.xp + excluded.xp) / ? + 1", model.XPPerLevel)},
			},
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		if err := tx.First(&profile, model.ProfileID).Error; err != nil {
			return fmt.Errorf("reload profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}
