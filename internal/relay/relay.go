// Package relay forwards the upstream token stream to the caller,
// injecting one citation event at the head.
//
// The relay is a pass-through copy stage preceded by a single synthetic
// write. It never inspects or transforms upstream bytes, so the upstream's
// own delta framing and completion sentinel survive untouched.
package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/policy-oracle/policyoracle/internal/domain/citation"
	"github.com/policy-oracle/policyoracle/internal/metrics"
)

// copyBufSize keeps per-read buffering small; backpressure is implicit
// because the next read only happens after the previous write completed.
const copyBufSize = 16 * 1024

// CitationFrame renders the citation list as one self-contained SSE data
// frame, formatted identically to the upstream's own event framing.
func CitationFrame(citations []citation.Citation) ([]byte, error) {
	payload, err := json.Marshal(struct {
		Citations []citation.Citation `json:"citations"`
	}{Citations: citations})
	if err != nil {
		return nil, fmt.Errorf("marshal citations: %w", err)
	}

	frame := make([]byte, 0, len("data: ")+len(payload)+2)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// Stream writes the citation frame (when citations exist) followed by every
// upstream byte verbatim, in order. It returns when the upstream ends or
// errors, or when the client side stops accepting writes; in the latter
// case the caller's context cancellation aborts the upstream read.
func Stream(w io.Writer, upstream io.Reader, citations []citation.Citation) error {
	if len(citations) > 0 {
		frame, err := CitationFrame(citations)
		if err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("write citation frame: %w", err)
		}
		flush(w)
	}

	buf := make([]byte, copyBufSize)
	for {
		n, rerr := upstream.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			metrics.RelayBytesTotal.Add(float64(wn))
			if werr != nil {
				return fmt.Errorf("write to client: %w", werr)
			}
			if wn < n {
				return io.ErrShortWrite
			}
			flush(w)
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read upstream: %w", rerr)
		}
	}
}

func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
