package categorizer

// CategorizationStrategy defines one way of deriving a spending category from
// message text. Strategies must be safe for concurrent use and free of I/O.
type CategorizationStrategy interface {
	// Categorize returns the category and true when the strategy recognises the text.
	Categorize(text string) (string, bool)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
