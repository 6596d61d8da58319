package catalog

import "pizza-ordering-api/models"

const MaxToppings = 10

func DefaultRules() models.BuilderRules {
	return models.BuilderRules{
		MaxToppings:     MaxToppings,
		DefaultSizeID:   "medium",
		DefaultBaseID:   "classic-dough",
		DefaultSauceID:  "marinara",
		DefaultCheeseID: "mozzarella",
	}
}

func size(id, name string, modifier float64) models.Component {
	return models.Component{ID: id, Name: name, PriceModifier: &modifier, IsAvailable: true}
}

func priced(id, name string, price float64, asset string, layer int) models.Component {
	return models.Component{ID: id, Name: name, Price: &price, Asset: asset, Layer: layer, IsAvailable: true}
}

func topping(id, name string, price float64) models.Component {
	return priced(id, name, price, "/assets/toppings/"+id+".png", 40)
}

// DefaultBuilderConfig is the stock component catalog written on first start.
func DefaultBuilderConfig() models.BuilderConfig {
	basePrice := 8.0
	barbecue := priced("barbecue", "Barbecue", 0.75, "/assets/sauce/barbecue.png", 20)
	barbecue.IDAlt = "bbq"

	return models.BuilderConfig{
		Sizes: []models.Component{
			size("small", `Small (10")`, 0.9),
			size("medium", `Medium (12")`, 1.0),
			size("large", `Large (14")`, 1.3),
		},
		Bases: []models.Component{
			{ID: "classic-dough", Name: "Classic Hand-Tossed", BasePrice: &basePrice, Asset: "/assets/base/crust.png", Layer: 10, IsAvailable: true},
		},
		Sauces: []models.Component{
			priced("marinara", "Marinara", 0, "/assets/sauce/marinara.png", 20),
			priced("alfredo", "Alfredo", 0.75, "/assets/sauce/alfredo.png", 20),
			barbecue,
		},
		Cheeses: []models.Component{
			priced("mozzarella", "Mozzarella", 0, "/assets/cheese/cheese.png", 30),
		},
		Toppings: []models.Component{
			topping("pepperoni", "Pepperoni", 1.25),
			topping("italian_sausage", "Italian Sausage", 1.25),
			topping("ham", "Ham", 1.25),
			topping("salami", "Salami", 1.50),
			topping("bacon", "Bacon", 1.50),
			topping("chicken", "Chicken", 1.50),
			topping("beef", "Beef", 1.25),
			topping("mushrooms", "Mushrooms", 1.00),
			topping("onions", "Onions", 0.75),
			topping("red_onions", "Red Onions", 0.75),
			topping("green_peppers", "Green Peppers", 1.00),
			topping("banana_peppers", "Banana Peppers", 1.00),
			topping("jalapeno", "Jalapeño", 1.00),
			topping("spinach", "Spinach", 1.00),
			topping("tomatoes", "Tomatoes", 1.00),
			topping("black_olives", "Black Olives", 0.75),
			topping("pineapple", "Pineapple", 1.00),
		},
	}
}

// DefaultPresets seeds an empty menu table.
func DefaultPresets() []models.PresetItem {
	return []models.PresetItem{
		{
			ID:          1,
			Name:        "Cowabunga Classic",
			Description: "Pepperoni, mozzarella, red sauce.",
			Price:       14.99,
			Category:    models.PresetPizza,
			ImageURL:    "/images/pizza-classic.png",
			IsAvailable: true,
		},
		{
			ID:          2,
			Name:        "Turtle Supreme",
			Description: "Sausage, pepperoni, peppers, onions, olives.",
			Price:       17.99,
			Category:    models.PresetPizza,
			ImageURL:    "/images/turtle-pizza.png",
			IsAvailable: true,
		},
		{
			ID:          3,
			Name:        "Veggie Dojo",
			Description: "Mushrooms, peppers, onions, olives, spinach.",
			Price:       15.99,
			Category:    models.PresetPizza,
			ImageURL:    "/images/pizza-veggie.png",
			IsAvailable: true,
		},
	}
}
