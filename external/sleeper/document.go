package sleeper

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// Document is a decoded upstream response. Object is never nil: empty,
// null, non-object and unparsable bodies all decode to an empty mapping.
type Document struct {
	Object      map[string]any
	StatusCode  int
	ContentType string
	// Malformed explains why the body was replaced by an empty mapping.
	Malformed string
}

func newDocument(status int, contentType string, raw []byte) Document {
	doc := Document{
		Object:      map[string]any{},
		StatusCode:  status,
		ContentType: contentType,
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		doc.Malformed = "empty body"
		return doc
	case bytes.Equal(trimmed, []byte("null")):
		return doc
	}

	var decoded any
	if err := sonic.Unmarshal(trimmed, &decoded); err != nil {
		doc.Malformed = "invalid json: " + err.Error()
		return doc
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		doc.Malformed = "json body is not an object"
		return doc
	}
	if object != nil {
		doc.Object = object
	}
	return doc
}

// Empty reports whether the document carries no fields.
func (d Document) Empty() bool {
	return len(d.Object) == 0
}
