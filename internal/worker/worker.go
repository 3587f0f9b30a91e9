package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"wcperfit/internal/config"
	"wcperfit/internal/logger"
	"wcperfit/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the worker needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Worker consumes host plugin lifecycle events and applies them.
type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor *processors.EventProcessor
	// retryDelay is the pause after a failed read.
	retryDelay time.Duration
}

func New(cfg *config.Config, processor *processors.EventProcessor, logger *logger.Logger) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(cfg.KafkaBrokers, ","),
		GroupID:        "wcperfit-worker",
		Topic:          cfg.KafkaTopic,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, processor, logger)
}

func NewWithReader(reader MessageReader, processor *processors.EventProcessor, logger *logger.Logger) *Worker {
	return &Worker{
		logger:     logger.With("worker"),
		reader:     reader,
		processor:  processor,
		retryDelay: time.Second,
	}
}

// Start reads events until ctx is cancelled or the reader is closed
// (ReadMessage returns io.EOF).
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				w.logger.Info("Worker stopped")
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				w.logger.Info("Worker stopped")
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		var event processors.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event %s: %v", event.Type, err)
			continue
		}
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if err := w.reader.Close(); err != nil {
		w.logger.Error("Failed to close reader: %v", err)
	}
}
