package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

// DependencyRepository is the read/write view over blocker edges.
type DependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

func (r *DependencyRepository) Create(ctx context.Context, dep *model.Dependency) error {
	if err := r.db.WithContext(ctx).Create(dep).Error; err != nil {
		return fmt.Errorf("create dependency: %w", err)
	}
	return nil
}

func (r *DependencyRepository) FindByID(ctx context.Context, id uint) (*model.Dependency, error) {
	var dep model.Dependency
	if err := r.db.WithContext(ctx).First(&dep, id).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

func (r *DependencyRepository) Exists(ctx context.Context, taskID, blockerID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Dependency{}).
		Where("task_id = ? AND blocker_id = ?", taskID, blockerID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check dependency: %w", err)
	}
	return count > 0, nil
}

func (r *DependencyRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Dependency{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete dependency: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// BlockersOf returns the tasks blocking taskID together with the edge ids.
func (r *DependencyRepository) BlockersOf(ctx context.Context, taskID uint) ([]model.Blocker, error) {
	var blockers []model.Blocker
	if err := r.db.WithContext(ctx).Table("task_dependencies").
		Select("task_dependencies.id AS link_id, tasks.*").
		Joins("JOIN tasks ON task_dependencies.blocker_id = tasks.id").
		Where("task_dependencies.task_id = ?", taskID).
		Order("task_dependencies.id ASC").
		Scan(&blockers).Error; err != nil {
		return nil, fmt.Errorf("list blockers: %w", err)
	}
	return blockers, nil
}

// BlockerIDs returns the ids of the direct blockers of each task in taskIDs.
func (r *DependencyRepository) BlockerIDs(ctx context.Context, taskIDs []uint) ([]uint, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Dependency{}).
		Where("task_id IN ?", taskIDs).
		Distinct().
		Pluck("blocker_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list blocker ids: %w", err)
	}
	return ids, nil
}

// Reaches reports whether target is reachable from start by following
// blocker edges, i.e. start is transitively blocked by target.
func (r *DependencyRepository) Reaches(ctx context.Context, start, target uint) (bool, error) {
	seen := map[uint]bool{start: true}
	frontier := []uint{start}
	for len(frontier) > 0 {
		next, err := r.BlockerIDs(ctx, frontier)
		if err != nil {
			return false, err
		}
		frontier = frontier[:0]
		for _, id := range next {
			if id == target {
				return true, nil
			}
			if !seen[id] {
				seen[id] = true
				frontier = append(frontier, id)
			}
		}
	}
	return false, nil
}
