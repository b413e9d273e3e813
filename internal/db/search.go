package db

// TextQuery is the input for a BM25 full-text search over one TEXT field.
type TextQuery struct {
	IndexName    string
	Field        string // TEXT field alias to match against
	Query        string // raw terms; the driver escapes and AND-joins them
	Filter       string // optional pre-built filter clause (e.g. "@document_id:{x}")
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single record hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
