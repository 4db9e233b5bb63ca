package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Codec carries AlertService messages as JSON. Servers force it with
// grpc.ForceServerCodec and Client attaches it to every call.
var Codec encoding.Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

func init() {
	encoding.RegisterCodec(Codec)
}
