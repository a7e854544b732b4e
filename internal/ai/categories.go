package ai

import (
	"fmt"
	"strings"
)

// CategoryOther is used when the model returns no category.
const CategoryOther = "Other"

// Category is one entry of the default taxonomy offered to the model.
type Category struct {
	Name  string
	Hints string
}

// DefaultCategories is the taxonomy the extraction prompt asks the model to use.
var DefaultCategories = []Category{
	{Name: "Food", Hints: "Restaurants, groceries, coffee, snacks."},
	{Name: "Transport", Hints: "Taxi, fuel, train, parking."},
	{Name: "Salary", Hints: "Income from work."},
	{Name: "Bills", Hints: "Electricity, water, internet, rent."},
	{Name: "Entertainment", Hints: "Movies, games, hobbies."},
	{Name: CategoryOther, Hints: "Anything else."},
}

var knownCategories = func() map[string]string {
	m := make(map[string]string, len(DefaultCategories))
	for _, c := range DefaultCategories {
		m[normalizeCategory(c.Name)] = c.Name
	}
	return m
}()

// CanonicalCategory maps a model supplied category onto the default spelling when it
// matches one case-insensitively. Unknown categories are kept as given, since users
// may record their own.
func CanonicalCategory(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return CategoryOther
	}
	if canonical, ok := knownCategories[normalizeCategory(name)]; ok {
		return canonical
	}
	return name
}

func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func buildCategoriesPrompt() string {
	var b strings.Builder
	b.WriteString("Category Guidelines:\n")
	for _, c := range DefaultCategories {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Hints)
	}
	return b.String()
}

func categoryNames() string {
	names := make([]string, len(DefaultCategories))
	for i, c := range DefaultCategories {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
