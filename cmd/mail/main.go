package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/logger"
	"github.com/guardias-hospital/shift-manager/backend/internal/mailer"
)

func main() {
	/**********************************************
	 * load config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	/**********************************************
	 * create logger
	 **********************************************/
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	composer, err := mailer.NewComposer(cfg.Email.SMTP.Username)
	if err != nil {
		log.Error("load mail templates", zap.Error(err))
		return
	}

	/**********************************************
	 * create mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		log.Error("create mail client", zap.Error(err))
		return
	}
	defer client.Close()

	// check that the SMTP server is reachable before consuming anything
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		log.Error("connect to mail server", zap.Error(err))
		return
	}

	/**********************************************
	 * connect to RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		log.Error("connect to rabbitmq", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("open channel", zap.Error(err))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // keep the queue while no consumer is attached
		false, // not exclusive, several workers may consume
		false, // wait for the broker to confirm
		nil,
	)
	if err != nil {
		log.Error("declare queue", zap.Error(err))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // let the broker name the consumer
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Error("consume queue", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}

				m, err := composer.Compose(msg.Body)
				if err != nil {
					log.Error("drop undeliverable mail", zap.Error(err), zap.ByteString("body", msg.Body))
					_ = msg.Nack(false, false)
					continue
				}

				if err := client.DialAndSendWithContext(ctx, m); err != nil {
					log.Error("send mail", zap.Error(err))
					_ = msg.Nack(false, true) // requeue
					continue
				}

				to := m.GetToString()
				log.Info("mail sent", zap.Strings("to", to))
				_ = msg.Ack(false)
			}
		}
	}()

	log.Info("waiting for messages (CTRL+C to quit)", zap.String("queue", q.Name))
	<-sigChan

	log.Info("stopping mail worker")
	stop()
	wg.Wait()
	log.Info("mail worker stopped")
}
