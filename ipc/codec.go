package ipc

import (
	"encoding/binary"
	"math"

	"github.com/pithecene-io/filesock/types"
)

// Frame layout constants.
const (
	// HeaderSize is the fixed header size in bytes.
	HeaderSize = 8
	// ReservedSize is the number of reserved header bytes after the type code.
	ReservedSize = 3
	// MaxContentLength is the largest content length the header can declare.
	// Lengths with the top bit set are rejected as negative.
	MaxContentLength = math.MaxInt32

	lengthOffset = 1 + ReservedSize
)

// Header is a decoded frame header.
type Header struct {
	Type          types.MessageType
	ContentLength uint32
}

// Encode serializes m into a complete frame.
// The None marker cannot be encoded.
func Encode(m types.Message) ([]byte, error) {
	if !m.Type().IsSerializable() {
		return nil, invalidArgument("cannot encode %s message", m.Type())
	}
	n := m.ContentLength()
	if n > 0 && !m.Type().CarriesContent() {
		return nil, invalidArgument("%s message cannot carry content", m.Type())
	}
	if n > MaxContentLength {
		return nil, invalidArgument("content length %d exceeds maximum %d", n, MaxContentLength)
	}

	buf := make([]byte, HeaderSize+n)
	buf[0] = byte(m.Type())
	// buf[1:4] stays zero (reserved)
	binary.BigEndian.PutUint32(buf[lengthOffset:HeaderSize], uint32(n))
	copy(buf[HeaderSize:], m.Content())
	return buf, nil
}

// DecodeHeader decodes an 8-byte frame header. Reserved bytes are ignored and
// the content length is always read big-endian.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, invalidArgument("header must be %d bytes, got %d", HeaderSize, len(b))
	}

	length := binary.BigEndian.Uint32(b[lengthOffset:HeaderSize])
	if int32(length) < 0 {
		return Header{}, invalidArgument("negative content length %d", int32(length))
	}

	return Header{
		Type:          types.MessageType(b[0]),
		ContentLength: length,
	}, nil
}

// DecodeBody builds a message from a decoded header and its content bytes.
//
// Zero-length frames map type codes 1..5 to their content-free variant.
// Frames with content are only legal for Write and Error. The content is
// decoded as UTF-8 (invalid bytes become U+FFFD); a decoded length that
// differs from the declared one is a KindInvalidState error.
func DecodeBody(typ types.MessageType, length uint32, body []byte) (types.Message, error) {
	if length == 0 {
		switch typ {
		case types.MessageTypeOk:
			return types.Ok(), nil
		case types.MessageTypeWrite:
			return types.Write(""), nil
		case types.MessageTypeClear:
			return types.Clear(), nil
		case types.MessageTypeError:
			return types.Error(""), nil
		case types.MessageTypePing:
			return types.Ping(), nil
		default:
			return types.None, invalidArgument("unknown message type: %d received", byte(typ))
		}
	}

	if !typ.CarriesContent() {
		return types.None, invalidArgument("unknown message type: %d with content length: %d received", byte(typ), length)
	}

	content := string([]rune(string(body)))
	if len(content) != int(length) {
		return types.None, invalidState("declared content length %d does not match decoded length %d", length, len(content))
	}

	if typ == types.MessageTypeWrite {
		return types.Write(content), nil
	}
	return types.Error(content), nil
}
