package queue

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/config"
	"github.com/ohlcx/candlefeed/internal/models"
)

// FetchHandler processes one dequeued fetch request.
type FetchHandler func(ctx context.Context, req *models.FetchRequest) error

// Consumer reads fetch requests from the price request topic and dispatches
// them to a worker pool. Messages with the same key always reach the same
// worker, preserving per-pair processing order. Handler failures are logged
// and the offset is committed regardless: a poisonous request must never
// stall the partition.
type Consumer struct {
	consumer    *kafka.Consumer
	handler     FetchHandler
	workerCount int
	workerChans []chan *kafka.Message
	log         *logrus.Logger
	wg          sync.WaitGroup
}

// NewConsumer creates a Kafka consumer for fetch requests.
//
// Parameters:
//
//	cfg: Kafka configuration.
//	workerCount: Number of handler workers.
//	handler: Callback invoked per fetch request.
//	log: Logger instance.
//
// Returns:
//
//	*Consumer: Initialized consumer, not yet running.
//	error: Consumer creation or subscription failure.
func NewConsumer(cfg *config.KafkaConfig, workerCount int, handler FetchHandler, log *logrus.Logger) (*Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.SubscribeTopics([]string{cfg.PriceRequestTopic}, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	if workerCount <= 0 {
		workerCount = 1
	}
	workerChans := make([]chan *kafka.Message, workerCount)
	for i := range workerChans {
		workerChans[i] = make(chan *kafka.Message, 2)
	}

	return &Consumer{
		consumer:    consumer,
		handler:     handler,
		workerCount: workerCount,
		workerChans: workerChans,
		log:         log,
	}, nil
}

// Run consumes until the context is cancelled, then drains the workers and
// closes the underlying consumer.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.WithField("workers", c.workerCount).Info("Starting fetch request consumer")

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i+1, c.workerChans[i])
	}

	for {
		select {
		case <-ctx.Done():
			for _, ch := range c.workerChans {
				close(ch)
			}
			c.wg.Wait()
			err := c.consumer.Close()
			c.log.Info("Fetch request consumer stopped")
			return err
		default:
			msg, err := c.consumer.ReadMessage(time.Second)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.IsTimeout() {
					continue
				}
				c.log.Errorf("Failed to read message: %v", err)
				continue
			}

			select {
			case c.workerChans[c.workerIndex(msg.Key)] <- msg:
			case <-ctx.Done():
			}
		}
	}
}

// workerIndex pins a message key to one worker.
func (c *Consumer) workerIndex(key []byte) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(c.workerCount))
}

func (c *Consumer) worker(ctx context.Context, workerID int, messages <-chan *kafka.Message) {
	defer c.wg.Done()

	for msg := range messages {
		c.handleMessage(ctx, workerID, msg)

		if _, err := c.consumer.CommitMessage(msg); err != nil {
			c.log.WithField("worker_id", workerID).Errorf("Failed to commit offset: %v", err)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, workerID int, msg *kafka.Message) {
	var req models.FetchRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.log.WithFields(logrus.Fields{
			"worker_id": workerID,
			"key":       string(msg.Key),
		}).Errorf("Discarding malformed fetch request: %v", err)
		return
	}

	if err := c.handler(ctx, &req); err != nil {
		c.log.WithFields(logrus.Fields{
			"worker_id":  workerID,
			"request_id": req.RequestID,
			"pair":       req.PriceObject.Pair,
			"interval":   req.PriceObject.Interval,
		}).Errorf("Fetch request failed: %v", err)
	}
}
