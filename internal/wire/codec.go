// Package wire holds the payloads exchanged with the validation service and the codec that
// carries them as google.protobuf.Struct messages.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrEmptyMessage is returned when decoding a nil message.
var ErrEmptyMessage = errors.New("empty message")

// Encode converts a payload into the Struct message sent on the wire. Field names follow the
// json tags of the payload type.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}

	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return msg, nil
}

// Decode fills v from a Struct message received on the wire.
func Decode(msg *structpb.Struct, v any) error {
	if msg == nil {
		return ErrEmptyMessage
	}

	data, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to decode into %T: %w", v, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode into %T: %w", v, err)
	}
	return nil
}
