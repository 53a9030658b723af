package audio

import (
	"context"
	"errors"
	"testing"
)

func TestBlockQueue_DropsWhenFull(t *testing.T) {
	q := newBlockQueue(2)
	for i := 0; i < 5; i++ {
		q.push(&AudioBuffer{SampleRate: i})
	}
	if got := q.dropped.Load(); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}

	// The oldest blocks survive, in order.
	ctx := context.Background()
	for want := 0; want < 2; want++ {
		b, err := q.pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if b.SampleRate != want {
			t.Errorf("got block %d, want %d", b.SampleRate, want)
		}
	}
}

func TestBlockQueue_CloseWinsOverPending(t *testing.T) {
	q := newBlockQueue(2)
	q.push(&AudioBuffer{})
	q.close()
	q.close() // idempotent

	if _, err := q.pop(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}

	q.push(&AudioBuffer{})
	if got := q.dropped.Load(); got != 0 {
		t.Errorf("push after close counted as dropped: %d", got)
	}
}

func TestProcessAudio_CopiesCallbackBuffer(t *testing.T) {
	c := &PortAudioCapturer{sampleRate: 44100, channels: 2, queue: newBlockQueue(1)}
	in := []float32{0.1, 0.2, 0.3, 0.4}
	c.processAudio(in)
	in[0] = 9 // PortAudio reuses its buffer between callbacks

	b, err := c.queue.pop(context.Background())
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if b.Samples[0] != 0.1 {
		t.Errorf("block aliases callback buffer: got %v", b.Samples[0])
	}
	if b.Channels != 2 || b.SampleRate != 44100 || b.Frames() != 2 {
		t.Errorf("got %d ch, %d Hz, %d frames", b.Channels, b.SampleRate, b.Frames())
	}
}
