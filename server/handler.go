package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/filesock/adapter"
	"github.com/pithecene-io/filesock/iox"
	"github.com/pithecene-io/filesock/ipc"
	"github.com/pithecene-io/filesock/log"
	"github.com/pithecene-io/filesock/metrics"
	"github.com/pithecene-io/filesock/target"
	"github.com/pithecene-io/filesock/types"
)

// ErrMissingContent is the reason a Write request without content is refused.
var ErrMissingContent = ipc.NewInvalidArgument("file cannot be null")

// Handler runs the one-shot request/response cycle for a single connection:
// read one frame, dispatch it against the target file, write at most one
// reply frame, close.
type Handler struct {
	target        target.Mutator
	maxContent    int
	ioTimeout     time.Duration
	notifier      adapter.Adapter
	notifyTimeout time.Duration
	logger        *log.Logger
	metrics       *metrics.Collector
}

// mutation describes a successful change to the target file.
type mutation struct {
	operation string
	bytes     int
}

// Serve handles conn until the cycle completes and always closes it.
// Failures never escape: they become an Error reply or a dropped connection.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) {
	defer iox.DiscardClose(conn)

	connID := uuid.NewString()
	logger := h.logger.With(map[string]any{"conn_id": connID})

	if h.ioTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(h.ioTimeout)); err != nil {
			logger.Warn("failed to set connection deadline", map[string]any{"error": err.Error()})
		}
	}

	// Shutdown aborts a pending request read. The reply write is unaffected.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var (
		reply types.Message
		mut   *mutation
	)

	req, err := ipc.ReadMessage(conn, h.maxContent)
	if err != nil && ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		logger.Debug("connection dropped by shutdown", map[string]any{"error": err.Error()})
		h.metrics.IncConnectionDropped()
		return
	}
	if err != nil {
		var respond bool
		reply, respond = h.readFailure(logger, err)
		if !respond {
			h.metrics.IncConnectionDropped()
			return
		}
	} else {
		h.metrics.IncRequest(req.Type().String())
		logger.Debug("request received", map[string]any{"request": req.String()})

		reply, mut, err = h.dispatch(req)
		if err != nil {
			logger.Warn("request failed", map[string]any{
				"request": req.String(),
				"error":   err.Error(),
			})
			reply = types.Error(err.Error())
		}
	}

	if reply.IsNone() {
		logger.Debug("no reply for request", map[string]any{"request": req.String()})
		return
	}

	if err := ipc.WriteMessage(conn, reply); err != nil {
		logger.Warn("failed to write reply", map[string]any{
			"reply": reply.String(),
			"error": err.Error(),
		})
		return
	}
	h.metrics.IncReplySent()

	if mut != nil {
		h.notify(ctx, logger, connID, mut)
	}
}

// dispatch maps a decoded request to its reply.
//
// Ping is acknowledged with Ok. Write appends its content and Clear truncates
// the file; both reply Ok. A Write without content fails with
// ErrMissingContent. Ok and Error requests get no reply (types.None).
// A non-nil error is meant to be sent back as an Error reply.
func (h *Handler) dispatch(req types.Message) (types.Message, *mutation, error) {
	switch req.Type() {
	case types.MessageTypePing:
		return types.Ok(), nil, nil

	case types.MessageTypeWrite:
		if !req.HasContent() {
			return types.None, nil, ErrMissingContent
		}
		if err := h.target.Append(req.Content()); err != nil {
			h.metrics.IncMutationFailure()
			return types.None, nil, err
		}
		h.metrics.IncMutationSuccess()
		h.metrics.AddBytesAppended(req.ContentLength())
		return types.Ok(), &mutation{operation: adapter.OperationWrite, bytes: req.ContentLength()}, nil

	case types.MessageTypeClear:
		if err := h.target.Clear(); err != nil {
			h.metrics.IncMutationFailure()
			return types.None, nil, err
		}
		h.metrics.IncMutationSuccess()
		return types.Ok(), &mutation{operation: adapter.OperationClear}, nil

	default:
		return types.None, nil, nil
	}
}

// readFailure classifies a read/decode failure. It returns the reply to
// send and whether one should be sent at all.
func (h *Handler) readFailure(logger *log.Logger, err error) (types.Message, bool) {
	fields := map[string]any{"error": err.Error()}

	kind, classified := ipc.KindOf(err)
	switch {
	case classified && kind == ipc.KindEndOfStream && errors.Is(err, io.EOF):
		logger.Debug("connection closed before request", fields)
		return types.None, false
	case classified && kind == ipc.KindEndOfStream:
		logger.Warn("connection closed mid-frame", fields)
		return types.None, false
	case classified:
		h.metrics.IncDecodeError()
		logger.Warn("malformed request", fields)
		return types.Error(err.Error()), true
	default:
		logger.Warn("failed to read request", fields)
		return types.None, false
	}
}

func (h *Handler) notify(ctx context.Context, logger *log.Logger, connID string, mut *mutation) {
	if h.notifier == nil {
		return
	}

	event := adapter.NewMutationEvent(mut.operation, h.target.Path(), connID, mut.bytes)

	notifyCtx, cancel := context.WithTimeout(ctx, h.notifyTimeout)
	defer cancel()

	if err := h.notifier.Publish(notifyCtx, event); err != nil {
		h.metrics.IncNotifyFailure()
		logger.Warn("mutation notification failed (best effort)", map[string]any{
			"operation": mut.operation,
			"error":     err.Error(),
		})
		return
	}
	h.metrics.IncNotifySuccess()
}
