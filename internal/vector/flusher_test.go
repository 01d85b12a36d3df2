package vector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingPersister struct{ n atomic.Int32 }

func (c *countingPersister) Persist(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestFlusher_PeriodicAndFinal(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &countingPersister{}
	f := NewFlusher(p, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.n.Load() >= 2 }, time.Second, 5*time.Millisecond)
	before := p.n.Load()
	cancel()
	<-done
	assert.GreaterOrEqual(t, p.n.Load(), before+1)
}

func TestFlusher_DisabledIntervalStillFlushesOnStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &countingPersister{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewFlusher(p, 0, nil).Run(ctx)
	assert.Equal(t, int32(1), p.n.Load())
}
