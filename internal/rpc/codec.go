package rpc

import (
	"encoding/json"
	"fmt"
)

// Codec carries the plain Go messages of this package as JSON over gRPC
type Codec struct{}

// Name implements encoding.Codec
func (Codec) Name() string {
	return "json"
}

// Marshal implements encoding.Codec
func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements encoding.Codec
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}
