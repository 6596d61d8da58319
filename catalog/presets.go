package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/models"

	"gorm.io/gorm"
)

// PresetInput is the admin payload for creating or replacing a preset.
type PresetInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       models.Number `json:"price"`
	Category    string        `json:"category"`
	ImageURL    string        `json:"imageUrl"`
	IsAvailable *bool         `json:"isAvailable"`
}

func (in PresetInput) validate() (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", apperrors.Validation("Name is required")
	}
	if !in.Price.Positive() {
		return "", apperrors.Validation("Price must be a positive number")
	}
	return name, nil
}

func presetNotFound() error { return apperrors.NotFound("Menu item not found") }

func (s *Store) seedPresets(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PresetItem{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count presets: %w", err)
	}
	if count > 0 {
		return nil
	}
	presets := DefaultPresets()
	if err := s.db.WithContext(ctx).Create(&presets).Error; err != nil {
		return fmt.Errorf("seed presets: %w", err)
	}
	s.log.Info(s.log.WithField(ctx, "count", len(presets)), "catalog.presets_seeded")
	return nil
}

// ListPresets returns every preset ordered by id.
func (s *Store) ListPresets(ctx context.Context) ([]models.PresetItem, error) {
	var items []models.PresetItem
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, apperrors.Internal(err, "failed to load menu")
	}
	return items, nil
}

// AvailablePresets returns the presets customers can order.
func (s *Store) AvailablePresets(ctx context.Context) ([]models.PresetItem, error) {
	var items []models.PresetItem
	err := s.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load menu")
	}
	return items, nil
}

func (s *Store) GetPreset(ctx context.Context, id uint) (models.PresetItem, error) {
	var item models.PresetItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PresetItem{}, presetNotFound()
	}
	if err != nil {
		return models.PresetItem{}, apperrors.Internal(err, "failed to load menu item")
	}
	return item, nil
}

// CreatePreset stores a new preset with id max(existing)+1.
func (s *Store) CreatePreset(ctx context.Context, in PresetInput) (models.PresetItem, error) {
	name, err := in.validate()
	if err != nil {
		return models.PresetItem{}, err
	}

	s.presetMu.Lock()
	defer s.presetMu.Unlock()

	item := models.PresetItem{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Value,
		Category:    models.NormalizePresetCategory(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsAvailable: in.IsAvailable == nil || *in.IsAvailable,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID uint
		if err := tx.Model(&models.PresetItem{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("next preset id: %w", err)
		}
		item.ID = maxID + 1
		return tx.Create(&item).Error
	})
	if err != nil {
		return models.PresetItem{}, apperrors.Internal(err, "failed to save menu item")
	}
	return item, nil
}

// UpdatePreset replaces name, description and price. Category, image and
// availability change only when supplied.
func (s *Store) UpdatePreset(ctx context.Context, id uint, in PresetInput) (models.PresetItem, error) {
	name, err := in.validate()
	if err != nil {
		return models.PresetItem{}, err
	}

	item, err := s.GetPreset(ctx, id)
	if err != nil {
		return models.PresetItem{}, err
	}

	item.Name = name
	item.Description = strings.TrimSpace(in.Description)
	item.Price = in.Price.Value
	if strings.TrimSpace(in.Category) != "" {
		item.Category = models.NormalizePresetCategory(in.Category)
	}
	if url := strings.TrimSpace(in.ImageURL); url != "" {
		item.ImageURL = url
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return models.PresetItem{}, apperrors.Internal(err, "failed to save menu item")
	}
	return item, nil
}

func (s *Store) DeletePreset(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.PresetItem{}, id)
	if res.Error != nil {
		return apperrors.Internal(res.Error, "failed to delete menu item")
	}
	if res.RowsAffected == 0 {
		return presetNotFound()
	}
	return nil
}
