package domain

import (
	"bytes"
	"net/http"
)

// StoredResponse is a fully produced response that may be shared between callers.
//
// It is never mutated after construction. The body slice is shared by every reader
// and must be treated as read-only.
type StoredResponse struct {
	statusCode int
	header     http.Header
	body       []byte
}

func NewStoredResponse(statusCode int, header http.Header, body []byte) StoredResponse {
	if header == nil {
		header = http.Header{}
	}
	return StoredResponse{
		statusCode: statusCode,
		header:     header.Clone(),
		body:       bytes.Clone(body),
	}
}

func (r StoredResponse) StatusCode() int {
	return r.statusCode
}

// Header returns a copy of the stored headers
func (r StoredResponse) Header() http.Header {
	return r.header.Clone()
}

// Body returns the stored body. The returned slice must not be modified.
func (r StoredResponse) Body() []byte {
	return r.body
}

func (r StoredResponse) IsZero() bool {
	return r.statusCode == 0 && r.header == nil && r.body == nil
}

// WriteTo replays the response onto w
func (r StoredResponse) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range r.header {
		dst[key] = append([]string(nil), values...)
	}
	w.WriteHeader(r.statusCode)
	_, err := w.Write(r.body)
	return err
}
