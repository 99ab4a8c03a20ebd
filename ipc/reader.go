package ipc

import (
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/filesock/types"
)

// ReadExact reads exactly n bytes from r, looping over short reads.
//
// If the stream ends before n bytes arrive the result is a KindEndOfStream
// error wrapping io.EOF (nothing was read) or io.ErrUnexpectedEOF (the frame
// was cut short). A partial buffer is never returned. Other read failures
// are returned wrapped and unclassified.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, invalidArgument("negative read length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &Error{
				Kind: KindEndOfStream,
				Msg:  "channel closed unexpectedly",
				Err:  err,
			}
		}
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return buf, nil
}

// ReadMessage reads and decodes one frame from r.
// When maxContent is positive, a declared content length above it is
// rejected before the body is read.
func ReadMessage(r io.Reader, maxContent int) (types.Message, error) {
	raw, err := ReadExact(r, HeaderSize)
	if err != nil {
		return types.None, err
	}

	h, err := DecodeHeader(raw)
	if err != nil {
		return types.None, err
	}

	if h.ContentLength == 0 {
		return DecodeBody(h.Type, 0, nil)
	}

	if maxContent > 0 && int64(h.ContentLength) > int64(maxContent) {
		return types.None, invalidArgument("content length %d exceeds limit %d", h.ContentLength, maxContent)
	}

	body, err := ReadExact(r, int(h.ContentLength))
	if err != nil {
		return types.None, err
	}

	return DecodeBody(h.Type, h.ContentLength, body)
}

// WriteMessage encodes m and writes the complete frame to w.
func WriteMessage(w io.Writer, m types.Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", m.Type(), err)
	}
	return nil
}
