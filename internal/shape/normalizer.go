// Package shape resolves relation-shape ambiguity in joined read results.
// Depending on which revision of the read query produced a record, a to-one
// relation may arrive as a bare object or as a one-element array, and a
// to-many relation may arrive as an array, a bare object, or null. All
// relation access goes through a Normalizer; assemblers never inspect raw
// shapes themselves.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/metrics"
)

type Normalizer struct {
	log *zap.Logger
}

func NewNormalizer(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// One decodes a declared-to-one relation into dst. Returns false when the
// relation is null or empty. When the relation arrives as an array with
// more than one element (a data-quality anomaly upstream uniqueness
// constraints should prevent), the first element is used and a warning is
// logged; the row is never dropped for it.
func (n *Normalizer) One(relation string, raw json.RawMessage, dst interface{}) (bool, error) {
	raw = trim(raw)
	if len(raw) == 0 {
		return false, nil
	}

	switch raw[0] {
	case '{':
		if err := json.Unmarshal(raw, dst); err != nil {
			return false, fmt.Errorf("relation %s: %w", relation, err)
		}
		return true, nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return false, fmt.Errorf("relation %s: %w", relation, err)
		}
		if len(elems) == 0 {
			return false, nil
		}
		if len(elems) > 1 {
			n.log.Warn("To-one relation returned multiple elements, using first",
				zap.String("relation", relation),
				zap.Int("elements", len(elems)),
			)
			metrics.ShapeAnomalies.WithLabelValues(relation).Inc()
		}
		if err := json.Unmarshal(elems[0], dst); err != nil {
			return false, fmt.Errorf("relation %s: %w", relation, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("relation %s: unexpected shape %q", relation, previewByte(raw))
	}
}

// Many decodes a declared-to-many relation into dst, which must be a
// pointer to a slice. Null becomes an empty collection and a bare object
// becomes a one-element collection.
func (n *Normalizer) Many(relation string, raw json.RawMessage, dst interface{}) error {
	raw = trim(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("relation %s: %w", relation, err)
		}
		return nil
	case '{':
		wrapped := make([]byte, 0, len(raw)+2)
		wrapped = append(wrapped, '[')
		wrapped = append(wrapped, raw...)
		wrapped = append(wrapped, ']')
		if err := json.Unmarshal(wrapped, dst); err != nil {
			return fmt.Errorf("relation %s: %w", relation, err)
		}
		return nil
	default:
		return fmt.Errorf("relation %s: unexpected shape %q", relation, previewByte(raw))
	}
}

func trim(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}

func previewByte(raw json.RawMessage) byte {
	return raw[0]
}
