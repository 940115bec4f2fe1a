package authpb

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype the auth service is served with
// ("application/grpc+authpb"). The payload is plain protobuf wire format,
// laid out as in auth.proto.
const CodecName = "authpb"

var errInvalidUTF8 = errors.New("string field contains invalid UTF-8")

// wireMessage is implemented by the messages of this package.
type wireMessage interface {
	marshalWire() []byte
	unmarshalWire(b []byte) error
}

// codec encodes this package's messages by hand and defers anything else
// (health checks, reflection) to the protobuf runtime.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.marshalWire(), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("authpb: cannot marshal %T", v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		if err := m.unmarshalWire(data); err != nil {
			return fmt.Errorf("authpb: %T: %w", v, err)
		}
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("authpb: cannot unmarshal into %T", v)
	}
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

// appendString writes a proto3 string field; the zero value is omitted.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendBool writes a proto3 bool field; false is omitted.
func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// fieldSet names the destinations of known fields. Unknown fields are
// skipped.
type fieldSet struct {
	strings map[protowire.Number]*string
	bools   map[protowire.Number]*bool
}

func (f fieldSet) decode(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if dst := f.strings[num]; dst != nil && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if !utf8.ValidString(v) {
				return errInvalidUTF8
			}
			*dst = v
			b = b[n:]
			continue
		}

		if dst := f.bools[num]; dst != nil && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			*dst = protowire.DecodeBool(v)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
