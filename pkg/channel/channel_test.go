package channel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respondWith runs a simulator double on the far side of a pipe, answering
// every request by calling reply with the deserialized message. Returning nil
// from reply swallows the request.
func respondWith(t *testing.T, sim *PipeTransport, reply func(req *messages.Message) *messages.Message) {
	t.Helper()
	go func() {
		for b := range sim.Inbound() {
			req, err := messages.DeserializeMessage(b)
			if err != nil {
				continue
			}
			resp := reply(req)
			if resp == nil {
				continue
			}
			resp.ReplyTo = req.Seq
			resp.Source = messages.SourceSimulator
			resp.Timestamp = time.Now().UnixMilli()
			out, err := messages.SerializeMessage(resp)
			if err != nil {
				continue
			}
			if err := sim.Post(out); err != nil {
				return
			}
		}
	}()
}

func TestChannel_SendBeforeInitialize(t *testing.T) {
	c := NewChannel(Config{})

	msg, err := messages.New(messages.MessageTypeGetStatus, nil, messages.SourceEditor)
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), msg)
	require.Error(t, err)
	assert.IsType(t, &ErrNotInitialized{}, err)

	// A nil transport leaves the channel uninitialized.
	c.Initialize(nil)
	_, err = c.SendMessage(context.Background(), msg)
	assert.IsType(t, &ErrNotInitialized{}, err)
}

func TestChannel_RequestReply(t *testing.T) {
	editor, sim := NewPipe()
	respondWith(t, sim, func(req *messages.Message) *messages.Message {
		if req.Type != messages.MessageTypeGetStatus {
			return nil
		}
		resp, err := messages.New(messages.MessageTypeStatus, &messages.StatusData{
			MapKey:        "basic1",
			ProgramStatus: "running",
			CurrentStep:   2,
			TotalSteps:    5,
		}, messages.SourceSimulator)
		require.NoError(t, err)
		return resp
	})

	c := NewChannel(Config{Timeout: time.Second})
	c.Initialize(editor)
	defer c.Disconnect()

	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "basic1", status.MapKey)
	assert.Equal(t, "running", status.ProgramStatus)
	assert.Equal(t, 2, status.CurrentStep)
}

func TestChannel_SendTimeout(t *testing.T) {
	editor, sim := NewPipe()
	// The simulator never answers.
	respondWith(t, sim, func(req *messages.Message) *messages.Message {
		return nil
	})

	c := NewChannel(Config{
		Timeout:       40 * time.Millisecond,
		RetryAttempts: 1,
		RetryDelay:    20 * time.Millisecond,
	})
	c.Initialize(editor)
	defer c.Disconnect()

	start := time.Now()
	err := c.LoadMap(context.Background(), "basic1")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	// Two attempts at 40ms each plus one 20ms backoff: the call must not
	// give up before the configured window has passed.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestChannel_ReplyBeatsTimeout(t *testing.T) {
	editor, sim := NewPipe()
	respondWith(t, sim, func(req *messages.Message) *messages.Message {
		resp, err := messages.New(messages.MessageTypeStatus, nil, messages.SourceSimulator)
		require.NoError(t, err)
		return resp
	})

	c := NewChannel(Config{Timeout: 5 * time.Second})
	c.Initialize(editor)
	defer c.Disconnect()

	start := time.Now()
	require.NoError(t, c.PauseProgram(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestChannel_Backpressure(t *testing.T) {
	editor, sim := NewPipe()

	c := NewChannel(Config{
		Timeout:       5 * time.Second,
		RetryAttempts: 1,
		MaxPending:    1,
	})
	c.Initialize(editor)
	defer c.Disconnect()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.StopProgram(context.Background())
	}()

	// Once the frame surfaces on the simulator side, the first send is
	// registered as pending.
	var req *messages.Message
	select {
	case b := <-sim.Inbound():
		var err error
		req, err = messages.DeserializeMessage(b)
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first send never reached the transport")
	}

	err := c.PauseProgram(context.Background())
	require.Error(t, err)
	assert.True(t, IsBackpressure(err))

	resp, err := messages.New(messages.MessageTypeStatus, nil, messages.SourceSimulator)
	require.NoError(t, err)
	resp.ReplyTo = req.Seq
	b, err := messages.SerializeMessage(resp)
	require.NoError(t, err)
	require.NoError(t, sim.Post(b))

	select {
	case err := <-firstDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first send never completed")
	}
}

func TestChannel_ContextCancel(t *testing.T) {
	editor, sim := NewPipe()
	respondWith(t, sim, func(req *messages.Message) *messages.Message {
		return nil
	})

	c := NewChannel(Config{Timeout: 5 * time.Second})
	c.Initialize(editor)
	defer c.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.LoadMap(ctx, "basic1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_ReadyStatus(t *testing.T) {
	editor, sim := NewPipe()

	c := NewChannel(Config{})
	c.Initialize(editor)
	defer c.Disconnect()

	isConnected, isReady := c.ConnectionStatus()
	assert.True(t, isConnected)
	assert.False(t, isReady)

	ready, err := messages.New(messages.MessageTypeReady, nil, messages.SourceSimulator)
	require.NoError(t, err)
	b, err := messages.SerializeMessage(ready)
	require.NoError(t, err)
	require.NoError(t, sim.Post(b))

	require.Eventually(t, func() bool {
		_, isReady := c.ConnectionStatus()
		return isReady
	}, time.Second, 10*time.Millisecond)
}

func TestChannel_HandlerDispatch(t *testing.T) {
	editor, sim := NewPipe()

	c := NewChannel(Config{})
	c.Initialize(editor)
	defer c.Disconnect()

	received := make(chan string, 4)
	c.OnMessage(messages.MessageTypeProgress, func(data json.RawMessage) {
		received <- "first"
	})
	removed := c.OnMessage(messages.MessageTypeProgress, func(data json.RawMessage) {
		received <- "removed"
	})
	c.OnMessage(messages.MessageTypeProgress, func(data json.RawMessage) {
		received <- "second"
	})
	c.OffMessage(messages.MessageTypeProgress, removed)

	progress, err := messages.New(messages.MessageTypeProgress, &messages.ProgressData{CurrentStep: 1}, messages.SourceSimulator)
	require.NoError(t, err)
	b, err := messages.SerializeMessage(progress)
	require.NoError(t, err)
	require.NoError(t, sim.Post(b))

	// Handlers run in registration order, minus the removed one.
	assert.Equal(t, "first", <-received)
	assert.Equal(t, "second", <-received)
	select {
	case extra := <-received:
		t.Fatalf("unexpected handler call: %s", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChannel_DropsInvalidFrames(t *testing.T) {
	editor, sim := NewPipe()

	c := NewChannel(Config{})
	c.Initialize(editor)
	defer c.Disconnect()

	received := make(chan struct{}, 1)
	c.OnMessage(messages.MessageTypeProgress, func(data json.RawMessage) {
		received <- struct{}{}
	})

	require.NoError(t, sim.Post([]byte("garbage")))
	require.NoError(t, sim.Post([]byte(`{"type":"NOT_A_TYPE","timestamp":1,"source":"robot-simulator"}`)))

	progress, err := messages.New(messages.MessageTypeProgress, nil, messages.SourceSimulator)
	require.NoError(t, err)
	b, err := messages.SerializeMessage(progress)
	require.NoError(t, err)
	require.NoError(t, sim.Post(b))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("valid frame never dispatched")
	}
	assert.Empty(t, received)
}

func TestChannel_DisconnectFailsPendingSend(t *testing.T) {
	editor, sim := NewPipe()

	c := NewChannel(Config{Timeout: 5 * time.Second})
	c.Initialize(editor)

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- c.StopProgram(context.Background())
	}()

	select {
	case <-sim.Inbound():
	case <-time.After(time.Second):
		t.Fatal("send never reached the transport")
	}

	c.Disconnect()

	select {
	case err := <-sendDone:
		require.Error(t, err)
		assert.IsType(t, &ErrDisconnected{}, err)
	case <-time.After(time.Second):
		t.Fatal("pending send never failed")
	}
}

func TestChannel_DisconnectIdempotent(t *testing.T) {
	editor, _ := NewPipe()

	c := NewChannel(Config{})
	c.Initialize(editor)

	c.Disconnect()
	c.Disconnect()
	c.Disconnect()

	isConnected, isReady := c.ConnectionStatus()
	assert.False(t, isConnected)
	assert.False(t, isReady)

	err := c.LoadMap(context.Background(), "basic1")
	assert.IsType(t, &ErrNotInitialized{}, err)
}
