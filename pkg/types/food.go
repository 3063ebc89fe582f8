package types

import "fmt"

// Dish difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Food is a dish in the family menu.
type Food struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags,omitempty"`
	Image       string   `json:"image,omitempty"`
	Favorite    bool     `json:"favorite"`
	Ingredients []string `json:"ingredients,omitempty"`
	Steps       string   `json:"steps,omitempty"`
	CookTime    int      `json:"cookTime,omitempty"` // minutes
	Difficulty  string   `json:"difficulty,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
}

func (f *Food) RecordID() string   { return f.ID }
func (f *Food) Collection() string { return CollectionFoods }

func (f *Food) Validate() error {
	if err := requireField("id", f.ID); err != nil {
		return err
	}
	if err := requireField("name", f.Name); err != nil {
		return err
	}
	switch f.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: difficulty %q", ErrInvalidType, f.Difficulty)
	}
	if f.CookTime < 0 {
		return fmt.Errorf("%w: cookTime", ErrInvalidAmount)
	}
	return nil
}

// Ingredient is a pantry item. Threshold is the quantity below which the
// item should be bought again.
type Ingredient struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
	Freshness    string  `json:"freshness,omitempty"`
	Storage      string  `json:"storage,omitempty"`
	PurchaseDate string  `json:"purchaseDate,omitempty"`
	Threshold    float64 `json:"threshold"`
	Image        string  `json:"image,omitempty"`
	Brightness   int     `json:"brightness,omitempty"`
}

func (i *Ingredient) RecordID() string   { return i.ID }
func (i *Ingredient) Collection() string { return CollectionIngredients }

func (i *Ingredient) Validate() error {
	if err := requireField("id", i.ID); err != nil {
		return err
	}
	if err := requireField("name", i.Name); err != nil {
		return err
	}
	if i.Quantity < 0 || i.Threshold < 0 {
		return fmt.Errorf("%w: quantity and threshold must not be negative", ErrInvalidAmount)
	}
	return validDate("purchaseDate", i.PurchaseDate, true)
}

// LowStock reports whether the quantity has reached the restock threshold.
func (i *Ingredient) LowStock() bool {
	return i.Threshold > 0 && i.Quantity <= i.Threshold
}
