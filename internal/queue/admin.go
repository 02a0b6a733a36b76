package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/config"
)

// EnsureTopic creates the price request topic if it does not already exist.
// Retention is bounded because fetch requests are only useful close to the
// tick that produced them.
func EnsureTopic(ctx context.Context, cfg *config.KafkaConfig, log *logrus.Logger) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create Kafka admin client: %w", err)
	}
	defer admin.Close()

	retentionMillis := (time.Duration(cfg.RetentionHours) * time.Hour).Milliseconds()
	spec := kafka.TopicSpecification{
		Topic:             cfg.PriceRequestTopic,
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: 1,
		Config: map[string]string{
			"retention.ms":        strconv.FormatInt(retentionMillis, 10),
			"min.insync.replicas": "1",
		},
	}

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{spec})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", cfg.PriceRequestTopic, err)
	}

	for _, result := range results {
		if result.Error.Code() == kafka.ErrTopicAlreadyExists {
			log.WithField("topic", result.Topic).Debug("Topic already exists")
			continue
		}
		if result.Error.Code() != kafka.ErrNoError {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
		log.WithFields(logrus.Fields{
			"topic":      result.Topic,
			"partitions": cfg.Partitions,
		}).Info("Created Kafka topic")
	}
	return nil
}
