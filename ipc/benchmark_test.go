package ipc

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pithecene-io/filesock/types"
)

func BenchmarkEncode_Write(b *testing.B) {
	m := types.Write(strings.Repeat("x", 4096))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Encode(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadMessage_OneByteReader(b *testing.B) {
	frame, err := Encode(types.Write(strings.Repeat("x", 1024)))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := ReadMessage(iotest.OneByteReader(bytes.NewReader(frame)), 0); err != nil {
			b.Fatal(err)
		}
	}
}
