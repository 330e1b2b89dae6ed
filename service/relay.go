package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tieubaoca/foodchat-be/types"
	"go.uber.org/zap"
)

// Sink is the outgoing side of a relay. Open commits the response before any
// fragment is known; WriteFragment must deliver the fragment to the client
// before returning.
type Sink interface {
	Open() error
	WriteFragment(fragment string) error
}

type RelayStats struct {
	Fragments int
	Bytes     int
}

// StreamRelay pipes one upstream completion into one Sink.
type StreamRelay struct {
	ai     AIService
	logger *zap.Logger
}

func NewStreamRelay(ai AIService, logger *zap.Logger) *StreamRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamRelay{
		ai:     ai,
		logger: logger,
	}
}

// Relay makes exactly one upstream call for messages and writes every
// non-empty fragment to sink in arrival order. The returned error wraps
// ErrUpstreamSetup, ErrUpstreamStream or ErrTransportWrite. The upstream
// stream is closed before Relay returns.
func (r *StreamRelay) Relay(ctx context.Context, messages []types.Message, sink Sink) (RelayStats, error) {
	var stats RelayStats

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := r.ai.ChatStream(ctx, messages)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUpstreamSetup, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			r.logger.Debug("Failed to close upstream stream", zap.Error(err))
		}
	}()

	if err := sink.Open(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}

	// One slot: the producer may read one fragment ahead of the writer.
	fragments := make(chan string, 1)
	upstreamErr := make(chan error, 1)

	go func() {
		defer close(fragments)
		for {
			fragment, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				upstreamErr <- err
				return
			}
			if fragment == "" {
				continue
			}
			select {
			case fragments <- fragment:
			case <-ctx.Done():
				upstreamErr <- ctx.Err()
				return
			}
		}
	}()

	for fragment := range fragments {
		if err := sink.WriteFragment(fragment); err != nil {
			cancel()
			for range fragments {
			}
			return stats, fmt.Errorf("%w: %w", ErrTransportWrite, err)
		}
		stats.Fragments++
		stats.Bytes += len(fragment)
	}

	select {
	case err := <-upstreamErr:
		return stats, fmt.Errorf("%w: %w", ErrUpstreamStream, err)
	default:
	}
	return stats, nil
}
