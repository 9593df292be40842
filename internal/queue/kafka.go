package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/smukkama/phenocover/internal/protocol"
)

// Producer wraps a Kafka producer
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // all events of a run land on one partition
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// PublishAnalysis sends the stage events of a run followed by its completion event, keyed by run ID
func (p *Producer) PublishAnalysis(ctx context.Context, completed *protocol.AnalysisCompleted) error {
	messages, err := AnalysisMessages(completed)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

// AnalysisMessages encodes a completed analysis into its ordered Kafka messages
func AnalysisMessages(completed *protocol.AnalysisCompleted) ([]kafka.Message, error) {
	key := []byte(completed.RunID)
	stages := protocol.NewStageEvents(completed.RunID, completed.Latitude, completed.Longitude, completed.Stages)

	messages := make([]kafka.Message, 0, len(stages)+1)
	for _, ev := range stages {
		value, err := protocol.EncodeStageReached(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to encode stage event: %w", err)
		}
		messages = append(messages, kafka.Message{Key: key, Value: value})
	}

	value, err := protocol.EncodeAnalysisCompleted(completed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion event: %w", err)
	}
	return append(messages, kafka.Message{Key: key, Value: value}), nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer wraps a Kafka consumer
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6, // 10MB
			CommitInterval: 0,    // commit manually after the e-mail went out
			StartOffset:    kafka.FirstOffset,
		}),
	}
}

// Consume reads messages from Kafka
func (c *Consumer) Consume(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// Commit commits the message offset
func (c *Consumer) Commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// EnsureTopic creates the analyses topic if the cluster does not have it yet
func EnsureTopic(brokers []string, topic string, numPartitions, replicationFactor int) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	log.Printf("Topic %s ready with %d partitions", topic, numPartitions)
	return nil
}
