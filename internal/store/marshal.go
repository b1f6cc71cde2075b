package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/lodestar/internal/ir"
)

// marshalCanonical converts v to canonical JSON TEXT for storage.
func marshalCanonical(v any, what string) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

func unmarshalText(data, what string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}
