package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrBufferFull = errors.New("event buffer full")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers events and writes them from a single goroutine started with Run.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	logger  *zap.Logger
	onError func(error)
}

func NewProducer(brokers []string, topic string, buf int, logger *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf, logger)
}

func newProducer(w messageWriter, buf int, logger *zap.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		logger:  logger,
		onError: func(error) {},
	}
}

// OnError registers a hook invoked for every failed write.
func (p *Producer) OnError(fn func(error)) {
	p.onError = fn
}

// Publish enqueues payload as JSON keyed by key. It never blocks.
func (p *Producer) Publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run drains the buffer until ctx is cancelled, then flushes what is left and closes the writer.
func (p *Producer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return p.w.Close()
		case msg := <-p.inbox:
			p.write(msg)
		}
	}
}

func (p *Producer) flush() {
	for {
		select {
		case msg := <-p.inbox:
			p.write(msg)
		default:
			return
		}
	}
}

func (p *Producer) write(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to write event", zap.ByteString("key", msg.Key), zap.Error(err))
		p.onError(err)
	}
}
