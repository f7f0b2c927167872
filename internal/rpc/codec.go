// Package rpc defines the lunchtab.v1 Connect services: procedure names,
// request and response messages, and handler/client constructors.
//
// Messages are plain Go structs carried by a JSON codec, so the services
// speak the Connect protocol with application/json bodies and any Connect
// client (or curl) can call them.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals messages with encoding/json. It registers under the name
// "json", replacing Connect's protobuf-only JSON codec.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}
