package logger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hango1705/bongland-backend/internal/infra/kafka_client"
	"github.com/segmentio/kafka-go"
)

const defaultLogWriteTimeout = 3 * time.Second

var ErrWriterNotInit = errors.New("kafka log writer is not init")

// KafkaLogWriter 把 zerolog 輸出的每一行送到 kafka
// key 用遞增序號，讓 log 平均分散到各分區
type KafkaLogWriter struct {
	p       kafka_client.Producer
	logId   atomic.Uint64
	timeout time.Duration
}

func NewKafkaLogWriter(p kafka_client.Producer) *KafkaLogWriter {
	if p == nil {
		panic("NewKafkaLogWriter producer is nil")
	}
	return &KafkaLogWriter{p: p, timeout: defaultLogWriteTimeout}
}

func (kw *KafkaLogWriter) Write(p []byte) (n int, err error) {
	if kw == nil || kw.p == nil {
		return 0, ErrWriterNotInit
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, kw.logId.Add(1))

	// zerolog 會重用 buffer，必須複製
	value := make([]byte, len(p))
	copy(value, p)

	ctx, cancel := context.WithTimeout(context.Background(), kw.timeout)
	defer cancel()
	if err := kw.p.Produce(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *KafkaLogWriter) Close() error {
	return kw.p.Close()
}
