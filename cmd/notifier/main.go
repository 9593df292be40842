package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/smukkama/phenocover/internal/notification"
	"github.com/smukkama/phenocover/internal/protocol"
	"github.com/smukkama/phenocover/internal/queue"
	"github.com/smukkama/phenocover/pkg/config"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("No Kafka brokers configured")
	}

	fmt.Println("Starting Notification Service...")

	// Create email notifier
	notifier := notification.NewEmailNotifier(&cfg.SMTP)

	// Test SMTP connection (optional, will skip if not configured)
	if err := notifier.TestConnection(); err != nil {
		fmt.Printf("Note: %v (notifications will be logged only)\n", err)
	}

	if err := queue.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.Topic, 3, 1); err != nil {
		log.Printf("Could not create topic %s: %v", cfg.Kafka.Topic, err)
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("\n✓ Notification Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	for {
		msg, err := consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			log.Printf("Failed to consume message: %v\n", err)
			continue
		}

		msgType, err := protocol.PeekType(msg.Value)
		if err != nil {
			log.Printf("Failed to decode message: %v\n", err)
			consumer.Commit(ctx, msg)
			continue
		}

		switch msgType {
		case protocol.EventStageReached:
			stage, err := protocol.DecodeStageReached(msg.Value)
			if err == nil {
				log.Printf("Run %s reached %s on %s", stage.RunID, stage.Stage, stage.Date.Format("2006-01-02"))
			}

		case protocol.EventAnalysisCompleted:
			completed, err := protocol.DecodeAnalysisCompleted(msg.Value)
			if err != nil {
				log.Printf("Failed to decode analysis: %v\n", err)
				break
			}

			// Send notification
			if err := notifier.SendAnalysisSummary(completed); err != nil {
				log.Printf("Failed to send notification: %v\n", err)
				// Don't commit on error - retry
				continue
			}
		}

		// Commit offset
		if err := consumer.Commit(ctx, msg); err != nil {
			log.Printf("Failed to commit offset: %v\n", err)
		}
	}

	fmt.Println("\nShutting down gracefully...")
}
