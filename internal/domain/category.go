package domain

// Category is the coarse topic of a support prompt, derived per request from
// keyword matching. Categories are never persisted; they are recomputed for
// every request.
type Category string

// The fixed category set. Ordering matters for classification: the first
// category whose keyword set matches wins.
const (
	CategoryAnxiety       Category = "anxiety"
	CategoryDepression    Category = "depression"
	CategoryStress        Category = "stress"
	CategoryRelationships Category = "relationships"
	CategorySleep         Category = "sleep"
	CategoryGeneral       Category = "general"
)

// Categories lists every non-general category in classification order.
func Categories() []Category {
	return []Category{
		CategoryAnxiety,
		CategoryDepression,
		CategoryStress,
		CategoryRelationships,
		CategorySleep,
	}
}

// Classification is the tagged result of classifying one prompt: a category
// plus an orthogonal crisis flag. Crisis routing takes precedence over the
// category in the response pipeline.
type Classification struct {
	Category Category
	Crisis   bool
}
