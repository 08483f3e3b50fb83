package resolver

import (
	"strings"

	"github.com/vk/calcgrid/internal/definition"
)

// categoryKeywords drives DetectCategory. Order matters: earlier entries
// win, so conversion's "-to-" pattern beats finance's broad vocabulary.
var categoryKeywords = []struct {
	category definition.Category
	keywords []string
}{
	{definition.CategoryConversion, []string{
		"-to-", "convert", "celsius", "fahrenheit", "kelvin",
		"meter", "mile", "inch", "feet", "yard", "gram", "liter", "gallon",
	}},
	{definition.CategoryFinance, []string{
		"loan", "mortgage", "tax", "interest", "salary", "pension",
		"invest", "saving", "currency", "vat", "tip", "discount",
		"payment", "budget", "debt", "retirement",
	}},
	{definition.CategoryHealth, []string{
		"bmi", "calorie", "body", "heart", "pregnancy", "water-intake",
		"protein", "ideal-weight",
	}},
	{definition.CategoryEducation, []string{
		"grade", "gpa", "exam", "score", "study",
	}},
}

// DetectCategory maps a slug to a category by keyword matching. Total: a
// slug matching nothing is miscellaneous.
func DetectCategory(slug string) definition.Category {
	lowered := strings.ToLower(slug)
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lowered, keyword) {
				return group.category
			}
		}
	}
	return definition.CategoryMiscellaneous
}

// slugTitle turns "car-loan-calculator" into "Car Loan Calculator".
func slugTitle(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	if len(words) == 0 {
		return "Calculator"
	}
	return strings.Join(words, " ")
}
