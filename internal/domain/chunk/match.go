package chunk

// Match pairs a chunk with its full-text search score.
type Match struct {
	Chunk Chunk
	Score float64
}
