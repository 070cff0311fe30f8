package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// indent matches the historical text form of metadata files (3 spaces).
const indent = "   "

// Marshal serializes a document to the on-disk text form.
func Marshal(d Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", indent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return data, nil
}

// Parse decodes a metadata document from its on-disk text form.
//
// Some acquisition software in the wild truncates the final closing brace of
// metadata.txt. Appending one brace repairs those files, so on a decode
// failure Parse retries with a trailing "}" before giving up. A decoder is
// used rather than Unmarshal so that well-formed files followed by stray
// bytes still parse.
func Parse(data []byte) (Document, error) {
	if doc, err := parseOne(data); err == nil {
		return doc, nil
	}

	repaired := make([]byte, 0, len(data)+1)
	repaired = append(repaired, data...)
	repaired = append(repaired, '}')
	doc, err := parseOne(repaired)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

func parseOne(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return Document(m), nil
}
