package types

import "fmt"

// MessageType is the single-byte type code carried in byte 0 of a frame header.
type MessageType byte

// Message type codes. MessageTypeNone is internal and never reaches the wire.
const (
	MessageTypeNone  MessageType = 0x0
	MessageTypeOk    MessageType = 0x1
	MessageTypeWrite MessageType = 0x2
	MessageTypeClear MessageType = 0x3
	MessageTypeError MessageType = 0x4
	MessageTypePing  MessageType = 0x5
)

// String returns the lowercase variant name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeNone:
		return "none"
	case MessageTypeOk:
		return "ok"
	case MessageTypeWrite:
		return "write"
	case MessageTypeClear:
		return "clear"
	case MessageTypeError:
		return "error"
	case MessageTypePing:
		return "ping"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// IsSerializable reports whether t is a wire type code (0x1..0x5).
func (t MessageType) IsSerializable() bool {
	return t >= MessageTypeOk && t <= MessageTypePing
}

// CarriesContent reports whether frames of type t may carry a content block.
// Only Write and Error do.
func (t MessageType) CarriesContent() bool {
	return t == MessageTypeWrite || t == MessageTypeError
}

// Message is one protocol unit. It is immutable once constructed and
// comparable with ==.
//
// Empty content and absent content are the same thing: the wire encodes both
// as a zero content length.
type Message struct {
	typ     MessageType
	content string
}

// None is the "produce no response" marker. The codec refuses to encode it.
var None = Message{typ: MessageTypeNone}

// Ok returns a success acknowledgement.
func Ok() Message { return Message{typ: MessageTypeOk} }

// Write returns a request to append content to the target file.
// An empty content string yields a Write without content.
func Write(content string) Message { return Message{typ: MessageTypeWrite, content: content} }

// Clear returns a request to truncate the target file.
func Clear() Message { return Message{typ: MessageTypeClear} }

// Error returns an error reply carrying a human-readable description.
func Error(text string) Message { return Message{typ: MessageTypeError, content: text} }

// Ping returns a liveness check request.
func Ping() Message { return Message{typ: MessageTypePing} }

// Type returns the variant type code.
func (m Message) Type() MessageType { return m.typ }

// Content returns the UTF-8 content, or "" when absent.
func (m Message) Content() string { return m.content }

// HasContent reports whether the message carries a non-empty content block.
func (m Message) HasContent() bool { return m.content != "" }

// ContentLength returns the UTF-8 byte length of the content.
func (m Message) ContentLength() int { return len(m.content) }

// IsNone reports whether m is the no-response marker.
func (m Message) IsNone() bool { return m.typ == MessageTypeNone }

// String renders the message for logs, e.g. write(5 bytes).
func (m Message) String() string {
	if m.HasContent() {
		return fmt.Sprintf("%s(%d bytes)", m.typ, len(m.content))
	}
	return m.typ.String()
}
