package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"wcperfit/internal/logger"
	"wcperfit/internal/worker/processors"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type sliceReader struct {
	mu       sync.Mutex
	msgs     []kafka.Message
	failures int
	reads    int
}

func (r *sliceReader) ReadMessage(context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.failures > 0 {
		r.failures--
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) Close() error { return nil }

type countingLifecycle struct{ deactivations int }

func (c *countingLifecycle) Deactivate(context.Context) error {
	c.deactivations++
	return nil
}

type noopInstaller struct{ installs int }

func (n *noopInstaller) Install(context.Context) (bool, error) {
	n.installs++
	return true, nil
}

func (n *noopInstaller) Uninstall(context.Context) (bool, error) { return true, nil }

func TestWorker_ProcessesUntilReaderEnds(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{
		{Value: []byte(`{"type":"plugin.activated","plugin":"woocommerce-perfit/woocommerce-perfit.php"}`)},
		{Value: []byte(`not json`)},
		{Value: []byte(`{"type":"plugin.deactivated","plugin":"woocommerce-perfit/woocommerce-perfit.php"}`)},
		{Value: []byte(`{"type":"plugin.deactivated","plugin":"hello-dolly/hello.php"}`)},
	}}
	lc := &countingLifecycle{}
	inst := &noopInstaller{}
	log := logger.New("error")
	w := NewWithReader(reader, processors.NewEventProcessor(inst, lc, log), log)

	w.Start(context.Background())

	assert.Equal(t, 1, inst.installs)
	assert.Equal(t, 1, lc.deactivations)
}

func TestWorker_PausesAfterReadError(t *testing.T) {
	reader := &sliceReader{failures: 3}
	log := logger.New("error")
	w := NewWithReader(reader, processors.NewEventProcessor(&noopInstaller{}, &countingLifecycle{}, log), log)
	w.retryDelay = 20 * time.Millisecond

	start := time.Now()
	w.Start(context.Background())

	assert.Equal(t, 4, reader.reads)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestWorker_StopsDuringRetryPause(t *testing.T) {
	reader := &sliceReader{failures: 1}
	log := logger.New("error")
	w := NewWithReader(reader, processors.NewEventProcessor(&noopInstaller{}, &countingLifecycle{}, log), log)
	w.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop while waiting to retry")
	}
	assert.Equal(t, 1, reader.reads)
}
