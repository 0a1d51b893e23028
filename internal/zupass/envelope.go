package zupass

import (
	"encoding/json"
	"errors"
)

// Envelope is the tagged proof wire shape.
type Envelope struct {
	Type string `json:"type"`
	PCD  string `json:"pcd"`
}

// ErrMalformedEnvelope reports input the fallback path cannot parse.
var ErrMalformedEnvelope = errors.New("malformed proof envelope")

// NormalizeEnvelope accepts either the tagged {type, pcd} shape or a bare
// serialized proof (legacy clients) and returns the tagged form the
// authenticate capability expects.
func NormalizeEnvelope(raw string) string {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Type != "" && env.PCD != "" {
		return raw
	}

	wrapped, err := json.Marshal(Envelope{Type: PCDType, PCD: raw})
	if err != nil {
		// Envelope of two strings cannot fail to marshal.
		return raw
	}
	return string(wrapped)
}

// ParseEnvelope extracts the inner serialized proof for the fallback path.
func ParseEnvelope(raw string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if env.PCD == "" {
		return nil, ErrMalformedEnvelope
	}
	return &env, nil
}
