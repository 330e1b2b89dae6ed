package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/tieubaoca/foodchat-be/middleware"
	"github.com/tieubaoca/foodchat-be/service"
	"github.com/tieubaoca/foodchat-be/types"
	"go.uber.org/zap"
)

type ChatHandler struct {
	relay        *service.StreamRelay
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewChatHandler(relay *service.StreamRelay, maxBodyBytes int64, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		relay:        relay,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// HandleChat streams the completion for the posted conversation as plain text.
// Once the first byte is committed, an upstream failure aborts the response
// instead of ending it cleanly.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))

	messages, err := h.readMessages(c)
	if err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Info("Rejected chat request", zap.Error(err), zap.Int("status", status))
		c.AbortWithStatusJSON(status, types.ErrorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	stats, err := h.relay.Relay(ctx, service.BuildConversation(messages), &responseSink{w: c.Writer})
	log = log.With(
		zap.Int("messages", len(messages)),
		zap.Int("fragments", stats.Fragments),
		zap.Int("bytes", stats.Bytes),
	)

	switch {
	case err == nil:
		log.Debug("Chat stream completed")
	case errors.Is(err, service.ErrUpstreamSetup):
		log.Error("Failed to start chat completion", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, types.ErrorResponse("chat completion service unavailable"))
	case ctx.Err() != nil:
		log.Info("Client went away during chat stream", zap.Error(err))
	case errors.Is(err, service.ErrTransportWrite):
		log.Warn("Failed to write chat stream", zap.Error(err))
	default:
		log.Error("Chat stream failed", zap.Error(err))
		panic(http.ErrAbortHandler)
	}
}

// readMessages decodes the body as a JSON array of messages. Anything else,
// including null, is malformed input.
func (h *ChatHandler) readMessages(c *gin.Context) ([]types.Message, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errMalformed("request body must be a JSON array of messages")
	}
	// The decoder stops after the first value; trailing data is still invalid JSON.
	if !json.Valid(trimmed) {
		return nil, errMalformed("invalid JSON")
	}

	var messages []types.Message
	if err := binding.JSON.BindBody(trimmed, &messages); err != nil {
		return nil, errMalformed("invalid JSON: " + err.Error())
	}
	if err := types.ValidateMessages(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func errMalformed(reason string) error {
	return fmt.Errorf("%w: %s", types.ErrMalformedInput, reason)
}

// responseSink writes fragments straight to the HTTP response, flushing after
// each one.
type responseSink struct {
	w gin.ResponseWriter
}

func (s *responseSink) Open() error {
	header := s.w.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.w.Flush()
	return nil
}

func (s *responseSink) WriteFragment(fragment string) error {
	if _, err := io.WriteString(s.w, fragment); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
