package device

import (
	"context"
	"sync"
	"testing"

	"vanet-relay/wire"
)

type fakeSink struct {
	mu    sync.Mutex
	batch [][]byte
}

func (f *fakeSink) MAC() wire.MacAddress { return wire.MacAddress{} }

func (f *fakeSink) SendAll(ctx context.Context, b []byte) error {
	return f.Send(ctx, b)
}

func (f *fakeSink) Send(ctx context.Context, b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batch = append(f.batch, append([]byte(nil), b...))
	return nil
}

func (f *fakeSink) SendVectored(ctx context.Context, bs [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bs {
		f.batch = append(f.batch, append([]byte(nil), b...))
	}
	return nil
}

func (f *fakeSink) Recv(ctx context.Context, buf []byte) (int, error) { return 0, nil }

func TestSendBatchedGroupsByDestination(t *testing.T) {
	dev := &fakeSink{}
	tap := &fakeSink{}

	replies := []Outbound{
		WireFlat([]byte("w1")),
		TapFlat([]byte("t1")),
		WireFlat([]byte("w2")),
	}
	if err := SendBatched(context.Background(), replies, tap, dev); err != nil {
		t.Fatalf("SendBatched: %v", err)
	}
	if len(dev.batch) != 2 {
		t.Fatalf("device got %d frames, want 2", len(dev.batch))
	}
	if len(tap.batch) != 1 {
		t.Fatalf("tap got %d frames, want 1", len(tap.batch))
	}
}

func TestSendBatchedFlattensLegacyNested(t *testing.T) {
	dev := &fakeSink{}
	tap := &fakeSink{}

	replies := []Outbound{
		WireNested([][]byte{[]byte("ab"), []byte("cd")}),
	}
	if err := SendBatched(context.Background(), replies, tap, dev); err != nil {
		t.Fatalf("SendBatched: %v", err)
	}
	if len(dev.batch) != 1 || string(dev.batch[0]) != "abcd" {
		t.Fatalf("device.batch = %q, want [\"abcd\"]", dev.batch)
	}
}
