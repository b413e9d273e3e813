// Package stream consumes the server's chat event stream: the citation
// event followed by model token deltas, terminated by the [DONE] sentinel.
//
// The consumer is transport-agnostic. Callers either push raw bytes with
// Feed as they arrive, or hand an io.Reader to Consume and let it drain the
// stream. Frames split across reads are reassembled before parsing.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// dataPrefix marks an SSE data frame; everything else is ignored.
const dataPrefix = "data: "

// doneSentinel is the upstream's end-of-stream marker.
const doneSentinel = "[DONE]"

// Citation points a piece of the answer back at a document location.
type Citation struct {
	DocumentTitle string `json:"document_title"`
	PageNumber    int    `json:"page_number"`
	SectionTitle  string `json:"section_title"`
	Content       string `json:"content"`
}

// frame is the union of the two payload shapes on the wire: the citation
// event and the upstream's delta frames.
type frame struct {
	Citations []Citation `json:"citations"`
	Choices   []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Consumer incrementally decodes the chat event stream.
type Consumer struct {
	buf       []byte
	text      strings.Builder
	citations []Citation
	done      bool
	onToken   func(string)
}

// Option customizes a Consumer.
type Option func(*Consumer)

// WithTokenFunc invokes fn for every content delta, in arrival order.
func WithTokenFunc(fn func(token string)) Option {
	return func(c *Consumer) { c.onToken = fn }
}

// NewConsumer creates an empty consumer.
func NewConsumer(opts ...Option) *Consumer {
	c := &Consumer{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Feed appends raw stream bytes and processes every complete line now
// available. A line whose JSON payload does not yet parse is left in the
// buffer so a later Feed can complete it.
func (c *Consumer) Feed(p []byte) {
	c.buf = append(c.buf, p...)

	for {
		idx := bytes.IndexByte(c.buf, '\n')
		if idx < 0 {
			return
		}
		line := string(bytes.TrimSuffix(c.buf[:idx], []byte("\r")))
		wasDone := c.done
		if !c.processLine(line) {
			return
		}
		c.buf = c.buf[idx+1:]
		if c.done && !wasDone {
			// The sentinel abandons the rest of this batch only; it is
			// advisory, not a close. Later batches are still processed,
			// so a trailing partial line stays buffered.
			c.dropCompleteLines()
			return
		}
	}
}

// dropCompleteLines discards every buffered complete line, keeping any
// trailing partial for the next batch.
func (c *Consumer) dropCompleteLines() {
	for {
		idx := bytes.IndexByte(c.buf, '\n')
		if idx < 0 {
			return
		}
		c.buf = c.buf[idx+1:]
	}
}

// processLine handles one complete line. It reports whether the line was
// consumed; false keeps the line buffered for reassembly.
func (c *Consumer) processLine(line string) bool {
	if line == "" || strings.HasPrefix(line, ":") {
		return true
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return true
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		c.done = true
		return true
	}

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		// Likely a frame split across reads: wait for the rest.
		return false
	}

	if f.Citations != nil {
		c.citations = f.Citations
		return true
	}
	if len(f.Choices) > 0 {
		if token := f.Choices[0].Delta.Content; token != "" {
			c.text.WriteString(token)
			if c.onToken != nil {
				c.onToken(token)
			}
		}
	}
	return true
}

// Consume drains r through Feed until the stream ends. The [DONE]
// sentinel alone does not stop the drain; the server closes the stream
// after sending it.
func (c *Consumer) Consume(r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.Feed(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// Done reports whether the [DONE] sentinel has been seen.
func (c *Consumer) Done() bool { return c.done }

// Citations returns the citation list announced at the head of the stream,
// or nil when the stream carried none.
func (c *Consumer) Citations() []Citation { return c.citations }

// Text returns the answer accumulated so far.
func (c *Consumer) Text() string { return c.text.String() }
