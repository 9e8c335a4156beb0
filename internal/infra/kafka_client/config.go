package kafka_client

import (
	"fmt"
	"time"
)

// Config 生產者設定
type Config struct {
	Brokers []string
	Topic   string

	RequiredAcks  int
	BatchSize     int
	BatchTimeout  time.Duration
	WriteTimeout  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func DefaultConfig(brokers []string, topic string) *Config {
	return &Config{
		Brokers:       brokers,
		Topic:         topic,
		RequiredAcks:  -1,
		BatchSize:     1,
		BatchTimeout:  10 * time.Millisecond,
		WriteTimeout:  10 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: brokers is empty", ErrInvalidateParameter)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidateParameter)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts must be >= 0", ErrInvalidateParameter)
	}
	return nil
}
