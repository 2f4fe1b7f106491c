package events

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
)

// 注文確定イベント。下流（メール通知・出荷など）が購読する。
type OrderCreatedEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OwnerKey    string    `json:"owner_key"`
	Total       string    `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher は注文イベントの発行窓口。
// 発行失敗は注文処理を失敗させない（呼び出し側はログに残すだけ）。
type Publisher interface {
	PublishOrderCreated(evt OrderCreatedEvent) error
	Close() error
}

const orderQueue = "order_created"

// Client はRabbitMQへのPublisher実装。
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

type Config struct {
	URL string
}

func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// durableキューを先に宣言しておく
	_, err = ch.QueueDeclare(
		orderQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", orderQueue, err)
	}

	return &Client{conn: conn, channel: ch}, nil
}

func (c *Client) PublishOrderCreated(evt OrderCreatedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return c.channel.Publish(
		"",         // default exchange
		orderQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// NopPublisher はAMQP未設定の環境（開発・テスト）用。
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(OrderCreatedEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }
