package nakama

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"whist/internal/domain"
)

// toStruct converts a JSON-tagged payload into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// encodePayload renders v as a binary protobuf Struct.
func encodePayload(v any) ([]byte, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeRequest accepts a binary protobuf Struct or its JSON form. Empty data
// is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return req, nil
	}
	if trimmed[0] == '{' {
		if err := protojson.Unmarshal(trimmed, req); err != nil {
			return nil, fmt.Errorf("invalid json request: %w", err)
		}
		return req, nil
	}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func fieldString(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func fieldInt(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	if n.NumberValue != float64(int(n.NumberValue)) {
		return 0, fmt.Errorf("field %q is not an integer", key)
	}
	return int(n.NumberValue), nil
}

func fieldCard(req *structpb.Struct, key string) (domain.Card, error) {
	return domain.ParseCard(fieldString(req, key))
}

func fieldTrump(req *structpb.Struct, key string) (domain.Trump, error) {
	return domain.ParseTrump(fieldString(req, key))
}

// errorPayload is sent with OpGameError.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
