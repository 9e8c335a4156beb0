package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNotificationQueueSize = 100
	defaultSendTimeout           = 30 * time.Second
)

var ErrDispatcherClosed = errors.New("notification dispatcher is closed")

// NotificationJob 一封訂單確認信
type NotificationJob struct {
	OrderID string
	Email   string
	Items   []model.OrderItem
}

type INotificationDispatcher interface {
	// Dispatch 不會阻塞，佇列滿或已關閉時丟棄並回傳 false
	Dispatch(job NotificationJob) bool
}

/*
單一 worker 依序寄信
寄送失敗只記錄，不影響訂單流程
請使用 defer 呼叫 Close()
*/
type NotificationDispatcher struct {
	mailService IMailService
	queue       chan NotificationJob
	sendTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

func NewNotificationDispatcher(mailService IMailService, queueSize int) *NotificationDispatcher {
	if mailService == nil {
		panic("NewNotificationDispatcher mailService is nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultNotificationQueueSize
	}
	return &NotificationDispatcher{
		mailService: mailService,
		queue:       make(chan NotificationJob, queueSize),
		sendTimeout: defaultSendTimeout,
		done:        make(chan struct{}),
	}
}

func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.worker()
}

func (d *NotificationDispatcher) Dispatch(job NotificationJob) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn().Str("order_id", job.OrderID).Msg("notification dispatcher closed, drop job")
		return false
	}

	select {
	case d.queue <- job:
		return true
	default:
		log.Warn().Str("order_id", job.OrderID).Msg("notification queue is full, drop job")
		return false
	}
}

func (d *NotificationDispatcher) worker() {
	defer close(d.done)
	for job := range d.queue {
		d.send(job)
	}
}

func (d *NotificationDispatcher) send(job NotificationJob) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("order_id", job.OrderID).Msg("notification send panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailService.SendOrderConfirmation(ctx, job.Email, job.Items); err != nil {
		if !errors.Is(err, ErrNotification) {
			err = errors.Join(ErrNotification, err)
		}
		log.Error().Err(err).Str("order_id", job.OrderID).Str("email", job.Email).Msg("send order confirmation failed")
		return
	}
	log.Info().Str("order_id", job.OrderID).Str("email", job.Email).Msg("order confirmation sent")
}

// Close 停止接收新工作，等待佇列清空或逾時
func (d *NotificationDispatcher) Close(timeout time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-d.done:
		return nil
	case <-time.After(timeout):
		return errors.New("notification dispatcher close timeout")
	}
}

var _ INotificationDispatcher = (*NotificationDispatcher)(nil)
