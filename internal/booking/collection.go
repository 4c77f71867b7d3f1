package booking

import (
	"encoding/json"
	"fmt"
)

// decodeCollection parses a stored JSON array. Elements that do not decode
// into T are skipped and counted; a document that is not a JSON array is
// an error and yields no items.
func decodeCollection[T any](data []byte) ([]T, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("parsing collection: %w", err)
	}

	items := make([]T, 0, len(raw))
	skipped := 0
	for _, elem := range raw {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// encodeCollection serializes items as a JSON array; nil encodes as [].
func encodeCollection[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	return data, nil
}
