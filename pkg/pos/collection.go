package pos

import (
	"bytes"
	"encoding/json"

	"github.com/appetiteclub/apt"
)

// decodeCollection turns a list response into a slice. Paginated envelopes
// ({"results": [...]}) are unwrapped. Elements are decoded one by one and a
// malformed element is dropped on its own. A body that is not a list at all
// becomes an empty slice so callers always get a renderable collection.
func decodeCollection[T any](raw []byte, resource string, logger apt.Logger) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []T{}
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			logger.Info("discarding malformed collection", "resource", resource, "error", err)
			return []T{}
		}
		items := make([]T, 0, len(elems))
		for i, elem := range elems {
			var item T
			if err := json.Unmarshal(elem, &item); err != nil {
				logger.Info("skipping malformed element", "resource", resource, "index", i, "error", err)
				continue
			}
			items = append(items, item)
		}
		return items
	case '{':
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err == nil && len(bytes.TrimSpace(page.Results)) > 0 && bytes.TrimSpace(page.Results)[0] == '[' {
			return decodeCollection[T](page.Results, resource, logger)
		}
	}

	logger.Info("unexpected collection shape", "resource", resource)
	return []T{}
}
