package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers provided")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Conf{client: client}, nil
}

// ProduceMessage writes a single record and waits for the broker ack.
func (c *Conf) ProduceMessage(topic string, key []byte, value []byte) error {
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// LowStock publishes a low stock event keyed by product id. It satisfies the
// orders.Notifier interface.
func (c *Conf) LowStock(ctx context.Context, productID, productName string, remainingStock int) error {
	jsonData, err := json.Marshal(LowStockEvent{
		ProductID:      productID,
		ProductName:    productName,
		RemainingStock: remainingStock,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal low stock event: %w", err)
	}
	return c.ProduceMessage(TopicLowStock, []byte(productID), jsonData)
}

func (c *Conf) Close() {
	c.client.Close()
}
