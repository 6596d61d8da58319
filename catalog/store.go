package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const configRowID = 1

// Snapshot is a point-in-time copy of the component catalog plus builder rules.
// It is safe to hand to callers; nothing in it aliases the store.
type Snapshot struct {
	models.BuilderConfig
	Rules models.BuilderRules `json:"rules"`
}

// ComponentInput is an admin upsert request. A zero ID creates a new item.
type ComponentInput struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Price       models.Number `json:"price"`
	IsAvailable *bool         `json:"isAvailable"`
}

// Store owns the component catalog (one JSON document) and the preset menu table.
type Store struct {
	db  *gorm.DB
	log *logger.Logger

	mu     sync.RWMutex
	config models.BuilderConfig
	rules  models.BuilderRules

	// presetMu serializes preset id assignment.
	presetMu sync.Mutex
}

// NewStore loads the catalog document, writing defaults when it is missing or
// unreadable, and seeds the preset table when empty.
func NewStore(ctx context.Context, db *gorm.DB, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{db: db, log: log, rules: DefaultRules()}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	s.config = cfg

	if err := s.seedPresets(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadConfig(ctx context.Context) (models.BuilderConfig, error) {
	var rec models.BuilderConfigRecord
	err := s.db.WithContext(ctx).First(&rec, configRowID).Error
	if err == nil {
		cfg, decodeErr := decodeConfig(rec.ConfigJSON)
		if decodeErr == nil {
			return cfg, nil
		}
		s.log.Warn(s.log.WithField(ctx, "error", decodeErr.Error()), "catalog.config_malformed_using_defaults")
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info(ctx, "catalog.config_missing_writing_defaults")
	} else {
		return models.BuilderConfig{}, fmt.Errorf("load builder config: %w", err)
	}

	defaults := DefaultBuilderConfig()
	if err := s.persistConfig(ctx, defaults); err != nil {
		return models.BuilderConfig{}, err
	}
	return defaults, nil
}

// storedComponent distinguishes an absent isAvailable (available) from false.
type storedComponent struct {
	models.Component
	IsAvailable *bool `json:"isAvailable"`
}

type storedConfig map[models.Category][]storedComponent

// decodeConfig parses a persisted document. Categories that are missing or
// empty fall back to the defaults so every list keeps at least one item.
func decodeConfig(raw string) (models.BuilderConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return models.BuilderConfig{}, errors.New("empty document")
	}
	var doc storedConfig
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.BuilderConfig{}, fmt.Errorf("decode builder config: %w", err)
	}
	if doc == nil {
		return models.BuilderConfig{}, errors.New("document is null")
	}

	defaults := DefaultBuilderConfig()
	var cfg models.BuilderConfig
	for _, category := range models.Categories {
		stored := doc[category]
		if len(stored) == 0 {
			cfg.SetList(category, defaults.List(category))
			continue
		}
		items := make([]models.Component, 0, len(stored))
		for _, sc := range stored {
			item := sc.Component
			item.IsAvailable = sc.IsAvailable == nil || *sc.IsAvailable
			items = append(items, item)
		}
		cfg.SetList(category, items)
	}
	return cfg, nil
}

func (s *Store) persistConfig(ctx context.Context, cfg models.BuilderConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode builder config: %w", err)
	}
	rec := models.BuilderConfigRecord{ID: configRowID, ConfigJSON: string(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"config_json", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save builder config: %w", err)
	}
	return nil
}

// Available returns only items customers may choose.
func (s *Store) Available(ctx context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out models.BuilderConfig
	for _, category := range models.Categories {
		src := s.config.List(category)
		items := make([]models.Component, 0, len(src))
		for _, item := range src {
			if item.IsAvailable {
				items = append(items, item.Clone())
			}
		}
		out.SetList(category, items)
	}
	return Snapshot{BuilderConfig: out, Rules: s.rules}
}

// All returns every item, including unavailable ones.
func (s *Store) All(ctx context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{BuilderConfig: s.config.Clone(), Rules: s.rules}
}

func parseCategory(raw string) (models.Category, error) {
	category := models.Category(strings.ToLower(strings.TrimSpace(raw)))
	if !category.IsValid() {
		return "", apperrors.Validation("Invalid category")
	}
	return category, nil
}

// UpsertComponent inserts a new item or updates the one whose id matches and
// reports whether it created one. An absent price keeps the current value (or
// a neutral default for new items).
func (s *Store) UpsertComponent(ctx context.Context, rawCategory string, in ComponentInput) (models.Component, bool, error) {
	category, err := parseCategory(rawCategory)
	if err != nil {
		return models.Component{}, false, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Component{}, false, apperrors.Validation("Name is required")
	}
	if in.Price.Set && !in.Price.Valid {
		return models.Component{}, false, apperrors.Validation("Price must be a number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	items := next.List(category)

	id := strings.TrimSpace(in.ID)
	index := -1
	if id != "" {
		for i, item := range items {
			if item.ID == id {
				index = i
				break
			}
		}
	}

	var updated models.Component
	if index >= 0 {
		updated = items[index].Clone()
	} else {
		if id == "" {
			id = generateID(category, name, items)
		}
		updated = models.Component{ID: id}
	}
	updated.Name = name
	updated.IsAvailable = in.IsAvailable == nil || *in.IsAvailable

	switch {
	case in.Price.Set:
		updated.SetAmount(category, in.Price.Value)
	case index < 0:
		if category == models.CategorySizes {
			updated.SetAmount(category, 1)
		} else {
			updated.SetAmount(category, 0)
		}
	}

	if index >= 0 {
		items[index] = updated
	} else {
		items = append(items, updated)
	}
	if !hasAvailable(items) {
		return models.Component{}, false, noAvailableItem()
	}
	next.SetList(category, items)

	if err := s.persistConfig(ctx, next); err != nil {
		return models.Component{}, false, apperrors.Internal(err, "failed to save catalog")
	}
	s.config = next
	return updated.Clone(), index < 0, nil
}

// DeleteComponent removes an item. A category always keeps at least one
// available item.
func (s *Store) DeleteComponent(ctx context.Context, rawCategory, id string) error {
	category, err := parseCategory(rawCategory)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.Clone()
	items := next.List(category)
	index := -1
	for i, item := range items {
		if item.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return apperrors.NotFound("Item not found")
	}
	if len(items) == 1 {
		return apperrors.Validation("Cannot delete the last item in a category")
	}

	items = append(items[:index], items[index+1:]...)
	if !hasAvailable(items) {
		return noAvailableItem()
	}
	next.SetList(category, items)

	if err := s.persistConfig(ctx, next); err != nil {
		return apperrors.Internal(err, "failed to save catalog")
	}
	s.config = next
	return nil
}

func noAvailableItem() error {
	return apperrors.Validation("Each category needs at least one available item")
}

func hasAvailable(items []models.Component) bool {
	for _, item := range items {
		if item.IsAvailable {
			return true
		}
	}
	return false
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases name and collapses every other run of characters into a dash.
func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func generateID(category models.Category, name string, existing []models.Component) string {
	base := slugify(name)
	if base == "" {
		base = string(category) + "-item"
	}
	taken := make(map[string]bool, len(existing))
	for _, item := range existing {
		taken[item.ID] = true
	}
	slug := base
	for n := 1; taken[slug]; n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug
}
