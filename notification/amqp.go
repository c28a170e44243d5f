package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/utils"
)

const dialAttempts = 3

// AMQPSender publishes settlement messages to a fanout exchange. Delivery
// channels (email, messaging apps) subscribe to the exchange.
type AMQPSender struct {
	url      string
	exchange string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// DialAMQP connects and declares the exchange, retrying with a linear backoff.
func DialAMQP(url, exchange string) (*AMQPSender, error) {
	s := &AMQPSender{url: url, exchange: exchange}

	var err error
	for i := 0; i < dialAttempts; i++ {
		if err = s.connect(); err == nil {
			utils.InfoLogger.Printf("Connected to AMQP exchange %s", exchange)
			return s, nil
		}
		if i < dialAttempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			utils.ErrorLogger.Warnf("Failed to connect to AMQP, retrying in %v: %v", wait, err)
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("connect to AMQP after %d attempts: %w", dialAttempts, err)
}

func (s *AMQPSender) connect() error {
	conn, err := amqp091.Dial(s.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	err = ch.ExchangeDeclare(
		s.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", s.exchange, err)
	}
	s.conn, s.channel = conn, ch
	return nil
}

func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.conn.IsClosed() {
		if err := s.connect(); err != nil {
			return fmt.Errorf("reconnect to AMQP: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(ctx,
		s.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.InvoiceNumber,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", s.exchange, err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant":   msg.TenantID,
		"order":    msg.OrderID,
		"exchange": s.exchange,
		"size":     len(body),
	}).Debug("settlement notification published")
	return nil
}

func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
