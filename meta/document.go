// Package meta implements the structured metadata documents stored alongside
// pixel data: generic get/put primitives, serialization to the on-disk text
// form, and parsing with repair of a known historical defect.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrParse is returned when a metadata document cannot be decoded.
var ErrParse = errors.New("meta: parse failed")

// ErrKeyNotFound is returned by the typed getters for absent keys.
var ErrKeyNotFound = errors.New("meta: key not found")

// Document is a string-keyed metadata document. Values are JSON scalars,
// arrays of scalars, or nested Documents.
type Document map[string]any

// New returns an empty document.
func New() Document {
	return Document{}
}

// Set stores a value, replacing any previous one.
func (d Document) Set(key string, v any) {
	d[key] = v
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Merge copies entries from src whose keys are absent in d.
// Existing keys are never overwritten: the first writer for a key wins.
func (d Document) Merge(src Document) {
	for k, v := range src {
		if _, ok := d[k]; !ok {
			d[k] = v
		}
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if sub, ok := asDocument(v); ok {
			out[k] = sub.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Keys returns all keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns the string value stored under key.
func (d Document) GetString(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: key %q holds %T, not string", ErrParse, key, v)
	}
	return s, nil
}

// GetInt returns the integer value stored under key. JSON numbers decode as
// float64, so both representations are accepted.
func (d Document) GetInt(key string) (int, error) {
	v, ok := d[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	n, ok := asInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: key %q holds %T, not integer", ErrParse, key, v)
	}
	return n, nil
}

// GetFloat returns the numeric value stored under key.
func (d Document) GetFloat(key string) (float64, error) {
	v, ok := d[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: key %q holds %T, not number", ErrParse, key, v)
	}
}

// GetStrings returns the string-array value stored under key.
func (d Document) GetStrings(key string) ([]string, error) {
	v, ok := d[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	switch arr := v.(type) {
	case []string:
		return arr, nil
	case []any:
		out := make([]string, len(arr))
		for i, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: key %q element %d holds %T, not string", ErrParse, key, i, e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: key %q holds %T, not string array", ErrParse, key, v)
	}
}

// GetInts returns the integer-array value stored under key.
func (d Document) GetInts(key string) ([]int, error) {
	v, ok := d[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	switch arr := v.(type) {
	case []int:
		return arr, nil
	case []any:
		out := make([]int, len(arr))
		for i, e := range arr {
			n, ok := asInt(e)
			if !ok {
				return nil, fmt.Errorf("%w: key %q element %d holds %T, not integer", ErrParse, key, i, e)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: key %q holds %T, not integer array", ErrParse, key, v)
	}
}

// GetDocument returns the nested document stored under key.
func (d Document) GetDocument(key string) (Document, error) {
	v, ok := d[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	sub, ok := asDocument(v)
	if !ok {
		return nil, fmt.Errorf("%w: key %q holds %T, not document", ErrParse, key, v)
	}
	return sub, nil
}

func asDocument(v any) (Document, bool) {
	switch sub := v.(type) {
	case Document:
		return sub, true
	case map[string]any:
		return Document(sub), true
	default:
		return nil, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
