package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/foodchat-be/types"
)

var userAsks = []types.Message{{Role: types.RoleUser, Content: "What can I use instead of eggs?"}}

func TestRelay_ForwardsFragmentsInOrder(t *testing.T) {
	ai := &fakeAI{steps: []step{{fragment: "Hello, "}, {fragment: "world!"}}}
	sink := &recordingSink{}

	stats, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	require.NoError(t, err)

	assert.Equal(t, "Hello, world!", sink.body())
	assert.Equal(t, []string{"Hello, ", "world!"}, sink.writes)
	assert.Equal(t, 1, sink.opened)
	assert.Equal(t, RelayStats{Fragments: 2, Bytes: 13}, stats)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, ai.streams[0].closeCount())
}

func TestRelay_SkipsEmptyFragments(t *testing.T) {
	ai := &fakeAI{steps: []step{{fragment: ""}, {fragment: "Sauté"}, {fragment: ""}, {fragment: " gently."}, {fragment: ""}}}
	sink := &recordingSink{}

	stats, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sauté", " gently."}, sink.writes)
	assert.Equal(t, 2, stats.Fragments)
	assert.Equal(t, len("Sauté gently."), stats.Bytes)
}

func TestRelay_EmptyUpstreamOpensAndCompletes(t *testing.T) {
	ai := &fakeAI{}
	sink := &recordingSink{}

	_, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.opened)
	assert.Empty(t, sink.writes)
}

func TestRelay_MidStreamFailureKeepsDeliveredFragments(t *testing.T) {
	ai := &fakeAI{steps: []step{{fragment: "Partial "}, {err: errBoom}, {fragment: "never"}}}
	sink := &recordingSink{}

	stats, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUpstreamStream)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "Partial ", sink.body())
	assert.Equal(t, 1, stats.Fragments)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, 1, ai.streams[0].closeCount())
}

func TestRelay_SetupFailureWritesNothing(t *testing.T) {
	ai := &fakeAI{setupErr: errBoom}
	sink := &recordingSink{}

	_, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUpstreamSetup)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, errors.Is(err, ErrUpstreamStream))
	assert.Zero(t, sink.opened)
	assert.Empty(t, sink.writes)
	assert.Equal(t, 1, ai.calls)
}

func TestRelay_OpenFailure(t *testing.T) {
	ai := &fakeAI{steps: []step{{fragment: "x"}}}
	sink := &recordingSink{openErr: errBoom}

	_, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
	assert.ErrorIs(t, err, ErrTransportWrite)
	assert.Empty(t, sink.writes)
	assert.Equal(t, 1, ai.streams[0].closeCount())
}

func TestRelay_WriteFailureReleasesUpstream(t *testing.T) {
	// The upstream never ends on its own; only cancellation stops it.
	ai := &fakeAI{steps: []step{{fragment: "one"}, {fragment: "two"}, {fragment: "three"}}, block: true}
	sink := &recordingSink{failAt: 2, writeErr: errBoom}

	done := make(chan error, 1)
	go func() {
		_, err := NewStreamRelay(ai, nil).Relay(context.Background(), userAsks, sink)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTransportWrite)
		assert.ErrorIs(t, err, errBoom)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not return after write failure")
	}

	assert.Equal(t, []string{"one"}, sink.writes)
	assert.Equal(t, 1, ai.streams[0].closeCount())
	assert.Error(t, ai.streams[0].ctx.Err(), "upstream context should be cancelled")
}

func TestRelay_ClientCancellationStopsUpstream(t *testing.T) {
	ai := &fakeAI{steps: []step{{fragment: "Whisk "}}, block: true}
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewStreamRelay(ai, nil).Relay(ctx, userAsks, sink)
		done <- err
	}()

	require.Eventually(t, func() bool {
		ai.mu.Lock()
		defer ai.mu.Unlock()
		return len(ai.streams) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrUpstreamStream)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not return after cancellation")
	}
	assert.Equal(t, 1, ai.streams[0].closeCount())
}

func TestRelay_PassesMessagesThrough(t *testing.T) {
	ai := &fakeAI{}
	conversation := BuildConversation(userAsks)

	_, err := NewStreamRelay(ai, nil).Relay(context.Background(), conversation, &recordingSink{})
	require.NoError(t, err)
	require.Len(t, ai.received, 1)
	assert.Equal(t, conversation, ai.received[0])
}
