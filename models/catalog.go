package models

import "time"

// Category names one of the five builder component lists.
type Category string

const (
	CategorySizes    Category = "sizes"
	CategoryBases    Category = "bases"
	CategorySauces   Category = "sauces"
	CategoryCheeses  Category = "cheeses"
	CategoryToppings Category = "toppings"
)

// Categories lists the builder categories in display order.
var Categories = []Category{CategorySizes, CategoryBases, CategorySauces, CategoryCheeses, CategoryToppings}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PriceKey is the JSON field that carries the price for items in this category.
func (c Category) PriceKey() string {
	switch c {
	case CategorySizes:
		return "priceModifier"
	case CategoryBases:
		return "basePrice"
	default:
		return "price"
	}
}

// Component is one selectable builder option. Only the price field matching
// its category is meaningful: sizes use PriceModifier (a multiplier), bases
// use BasePrice, everything else uses Price.
type Component struct {
	ID            string   `json:"id"`
	IDAlt         string   `json:"idAlt,omitempty"`
	Name          string   `json:"name"`
	PriceModifier *float64 `json:"priceModifier,omitempty"`
	BasePrice     *float64 `json:"basePrice,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Asset         string   `json:"asset,omitempty"`
	Layer         int      `json:"layer,omitempty"`
	IsAvailable   bool     `json:"isAvailable"`
}

// Matches reports whether id refers to this component by id or alternate id.
func (c Component) Matches(id string) bool {
	return id != "" && (c.ID == id || c.IDAlt == id)
}

// Amount returns the category price value, or fallback when unset.
func (c Component) Amount(category Category, fallback float64) float64 {
	var v *float64
	switch category {
	case CategorySizes:
		v = c.PriceModifier
	case CategoryBases:
		v = c.BasePrice
	default:
		v = c.Price
	}
	if v == nil {
		return fallback
	}
	return *v
}

// SetAmount stores value in the category price field.
func (c *Component) SetAmount(category Category, value float64) {
	v := value
	switch category {
	case CategorySizes:
		c.PriceModifier = &v
	case CategoryBases:
		c.BasePrice = &v
	default:
		c.Price = &v
	}
}

// Clone returns a deep copy (price pointers included).
func (c Component) Clone() Component {
	out := c
	if c.PriceModifier != nil {
		v := *c.PriceModifier
		out.PriceModifier = &v
	}
	if c.BasePrice != nil {
		v := *c.BasePrice
		out.BasePrice = &v
	}
	if c.Price != nil {
		v := *c.Price
		out.Price = &v
	}
	return out
}

// BuilderConfig is the full component catalog as persisted in one document.
type BuilderConfig struct {
	Sizes    []Component `json:"sizes"`
	Bases    []Component `json:"bases"`
	Sauces   []Component `json:"sauces"`
	Cheeses  []Component `json:"cheeses"`
	Toppings []Component `json:"toppings"`
}

// List returns the slice for category, or nil for an unknown category.
func (b *BuilderConfig) List(category Category) []Component {
	switch category {
	case CategorySizes:
		return b.Sizes
	case CategoryBases:
		return b.Bases
	case CategorySauces:
		return b.Sauces
	case CategoryCheeses:
		return b.Cheeses
	case CategoryToppings:
		return b.Toppings
	}
	return nil
}

// SetList replaces the slice for category.
func (b *BuilderConfig) SetList(category Category, items []Component) {
	switch category {
	case CategorySizes:
		b.Sizes = items
	case CategoryBases:
		b.Bases = items
	case CategorySauces:
		b.Sauces = items
	case CategoryCheeses:
		b.Cheeses = items
	case CategoryToppings:
		b.Toppings = items
	}
}

// Clone deep-copies every list.
func (b BuilderConfig) Clone() BuilderConfig {
	var out BuilderConfig
	for _, category := range Categories {
		src := b.List(category)
		items := make([]Component, len(src))
		for i, item := range src {
			items[i] = item.Clone()
		}
		out.SetList(category, items)
	}
	return out
}

// BuilderRules are the constraints shared by the builder UI and the pricing engine.
type BuilderRules struct {
	MaxToppings     int    `json:"maxToppings"`
	DefaultSizeID   string `json:"defaultSizeId"`
	DefaultBaseID   string `json:"defaultBaseId"`
	DefaultSauceID  string `json:"defaultSauceId"`
	DefaultCheeseID string `json:"defaultCheeseId"`
}

// PresetCategory tags a preset menu entry.
type PresetCategory string

const (
	PresetPizza   PresetCategory = "pizza"
	PresetSide    PresetCategory = "side"
	PresetDrink   PresetCategory = "drink"
	PresetDessert PresetCategory = "dessert"
)

var PresetCategories = []PresetCategory{PresetPizza, PresetSide, PresetDrink, PresetDessert}

// NormalizePresetCategory maps unknown tags to pizza.
func NormalizePresetCategory(value string) PresetCategory {
	for _, known := range PresetCategories {
		if PresetCategory(value) == known {
			return known
		}
	}
	return PresetPizza
}

// PresetItem is a menu entry purchased as-is, stored one row per item.
type PresetItem struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Price       float64        `json:"price" gorm:"not null"`
	Category    PresetCategory `json:"category" gorm:"not null"`
	ImageURL    string         `json:"imageUrl"`
	IsAvailable bool           `json:"isAvailable" gorm:"not null"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

func (PresetItem) TableName() string { return "menu_items" }

// BuilderConfigRecord holds the whole component catalog as a single JSON
// document. There is only ever one row, id 1.
type BuilderConfigRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement:false"`
	ConfigJSON string `gorm:"type:text;not null"`
	UpdatedAt  time.Time
}

func (BuilderConfigRecord) TableName() string { return "builder_config" }
