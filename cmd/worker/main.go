// Worker consumes email jobs from Kafka and delivers them through the mail
// provider with bounded retries.
// Set KAFKA_BROKERS, MAIL_KAFKA_TOPIC, KAFKA_GROUP_ID, MAIL_API_KEY, MAIL_API_BASE_URL, and MAIL_FROM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/config"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.MailAPIBaseURL == "" {
		log.Fatal("worker: MAIL_API_BASE_URL is required")
	}

	topic := cfg.MailKafkaTopic
	if topic == "" {
		topic = "gtc-mail"
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "gtc-mail-worker"
	}

	reader := mail.NewKafkaReader(brokers, topic, groupID)
	defer reader.Close()

	sender := mail.NewAPISender(cfg.MailAPIKey, cfg.MailAPIBaseURL, cfg.MailFrom)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s)", topic, groupID)
	mail.NewWorker(reader, sender).Run(ctx)
}
