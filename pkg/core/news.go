package core

import "time"

// PlaceholderSource tags articles produced by the static placeholder
// generator so callers can tell them apart from live news.
const PlaceholderSource = "coinwatch-placeholder"

// Article is a news article normalized across providers.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name"`
}

// IsPlaceholder reports whether the article came from the static
// placeholder generator rather than a live provider.
func (a Article) IsPlaceholder() bool {
	return a.SourceName == PlaceholderSource
}
