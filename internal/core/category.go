package core

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryUtilities     Category = "utilities"
	CategoryHealthcare    Category = "healthcare"
	CategoryEducation     Category = "education"
	CategoryTransfer      Category = "transfer"
	CategorySalary        Category = "salary"
	CategoryOther         Category = "other"
)

// Category is a closed set of transaction tags used for bucketed aggregation.
type Category string

// Categories lists every known category in a stable order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryShopping,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTransfer,
	CategorySalary,
	CategoryOther,
}

var categoryColors = map[Category]string{
	CategoryFood:          "#FF6B6B",
	CategoryTransport:     "#4ECDC4",
	CategoryEntertainment: "#45B7D1",
	CategoryShopping:      "#96CEB4",
	CategoryUtilities:     "#FFEAA7",
	CategoryHealthcare:    "#DDA0DD",
	CategoryEducation:     "#98D8C8",
	CategoryTransfer:      "#F7DC6F",
	CategorySalary:        "#82E0AA",
	CategoryOther:         "#AED6F1",
}

func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// ParseCategory maps arbitrary input onto the closed set; anything
// unrecognized becomes CategoryOther.
func ParseCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// CategoryColor is total: unknown categories fall back to the color of
// CategoryOther.
func CategoryColor(c Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}
