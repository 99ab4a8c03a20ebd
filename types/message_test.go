package types //nolint:revive // types is a valid package name

import "testing"

func TestMessage_ContentLengthCountsBytes(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want int
	}{
		{"ok", Ok(), 0},
		{"ping", Ping(), 0},
		{"clear", Clear(), 0},
		{"write ascii", Write("hello"), 5},
		{"write multibyte", Write("héllo wörld"), 13},
		{"write emoji", Write("🙂"), 4},
		{"error", Error("boom"), 4},
		{"write empty", Write(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.ContentLength(); got != tt.want {
				t.Errorf("ContentLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessage_EmptyWriteEqualsContentlessWrite(t *testing.T) {
	if Write("") != (Message{typ: MessageTypeWrite}) {
		t.Error("Write(\"\") should equal a Write without content")
	}
	if Write("").HasContent() {
		t.Error("Write(\"\") should not report content")
	}
}

func TestMessageType_Classification(t *testing.T) {
	tests := []struct {
		typ          MessageType
		serializable bool
		content      bool
		name         string
	}{
		{MessageTypeNone, false, false, "none"},
		{MessageTypeOk, true, false, "ok"},
		{MessageTypeWrite, true, true, "write"},
		{MessageTypeClear, true, false, "clear"},
		{MessageTypeError, true, true, "error"},
		{MessageTypePing, true, false, "ping"},
		{MessageType(0x9), false, false, "unknown(0x09)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsSerializable(); got != tt.serializable {
				t.Errorf("IsSerializable() = %v, want %v", got, tt.serializable)
			}
			if got := tt.typ.CarriesContent(); got != tt.content {
				t.Errorf("CarriesContent() = %v, want %v", got, tt.content)
			}
			if got := tt.typ.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestNone_IsNone(t *testing.T) {
	if !None.IsNone() {
		t.Error("None.IsNone() = false")
	}
	if Ok().IsNone() {
		t.Error("Ok().IsNone() = true")
	}
}

func TestMessage_String(t *testing.T) {
	if got := Write("hello").String(); got != "write(5 bytes)" {
		t.Errorf("String() = %q, want %q", got, "write(5 bytes)")
	}
	if got := Ping().String(); got != "ping" {
		t.Errorf("String() = %q, want %q", got, "ping")
	}
}
