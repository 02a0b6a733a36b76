package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/config"
	"github.com/ohlcx/candlefeed/internal/models"
)

// Producer publishes candle fetch requests to the price request topic.
// Publishing is fire and forget: delivery failures surface through the
// producer event channel and are logged, never returned to the caller.
type Producer struct {
	producer *kafka.Producer
	topic    string
	log      *logrus.Logger
}

// NewProducer creates a Kafka producer for fetch requests.
//
// Parameters:
//
//	cfg: Kafka configuration.
//	log: Logger instance.
//
// Returns:
//
//	*Producer: Initialized producer with the delivery report loop running.
//	error: Producer creation failure.
func NewProducer(cfg *config.KafkaConfig, log *logrus.Logger) (*Producer, error) {
	kafkaConfig := kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	}

	producer, err := kafka.NewProducer(&kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &Producer{
		producer: producer,
		topic:    cfg.PriceRequestTopic,
		log:      log,
	}
	p.startDeliveryReport()

	log.WithField("topic", cfg.PriceRequestTopic).Info("Kafka producer initialized")
	return p, nil
}

// startDeliveryReport drains the producer event channel and logs failed
// deliveries.
func (p *Producer) startDeliveryReport() {
	go func() {
		for e := range p.producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.log.WithFields(logrus.Fields{
						"topic": p.topic,
						"key":   string(ev.Key),
					}).Errorf("Message delivery failed: %v", ev.TopicPartition.Error)
				}
			case kafka.Error:
				p.log.Errorf("Kafka producer error: %v", ev)
			}
		}
	}()
}

// PublishFetchRequest serializes the request and enqueues it keyed by pair,
// so all requests for one pair land on the same partition in order.
func (p *Producer) PublishFetchRequest(req *models.FetchRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal fetch request: %w", err)
	}

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(req.Key()),
		Value:          payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to enqueue fetch request: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"pair":       req.PriceObject.Pair,
		"interval":   req.PriceObject.Interval,
	}).Debug("Published fetch request")
	return nil
}

// Close flushes outstanding messages and releases the producer.
func (p *Producer) Close() {
	remaining := p.producer.Flush(int((5 * time.Second).Milliseconds()))
	if remaining > 0 {
		p.log.WithField("remaining", remaining).Warn("Kafka producer closed with unflushed messages")
	}
	p.producer.Close()
	p.log.Info("Kafka producer closed")
}
