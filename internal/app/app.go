// Package app wires the shared runtime pieces used by the binaries under cmd.
package app

import (
	"database/sql"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/cache"
	"github.com/guardias-hospital/shift-manager/backend/internal/config"
	"github.com/guardias-hospital/shift-manager/backend/internal/database"
	"github.com/guardias-hospital/shift-manager/backend/internal/lifecycle"
	"github.com/guardias-hospital/shift-manager/backend/internal/notify"
	"github.com/guardias-hospital/shift-manager/backend/internal/repository"
)

const cachePrefix = "guardias:"

// Runtime holds the open connections and the services built on them.
type Runtime struct {
	DB        *sql.DB
	Repo      *repository.Repository
	Redis     *redis.Client
	Cache     *cache.Client
	Queue     *notify.QueueSink
	Lifecycle *lifecycle.Service

	conn    *amqp.Connection
	channel *amqp.Channel
}

// Open connects to postgres, rabbitmq and redis, applies migrations when
// enabled and builds the lifecycle service with its notification fan-out.
func Open(cfg *config.Config, logger *zap.Logger) (rt *Runtime, err error) {
	rt = &Runtime{}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	if rt.DB, err = database.Open(cfg); err != nil {
		return rt, err
	}
	if cfg.Database.AutoMigrate {
		if err = database.RunMigrations(rt.DB, logger); err != nil {
			return rt, err
		}
	}
	rt.Repo = repository.NewRepository(cfg, rt.DB)

	if rt.conn, err = amqp.Dial(cfg.RabbitMQ.DSN); err != nil {
		return rt, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	if rt.channel, err = rt.conn.Channel(); err != nil {
		return rt, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err = rt.channel.QueueDeclare(cfg.RabbitMQ.Queue, true, false, false, false, nil); err != nil {
		return rt, fmt.Errorf("declare queue %s: %w", cfg.RabbitMQ.Queue, err)
	}
	rt.Queue = notify.NewQueueSink(rt.channel, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	if rt.Redis, err = cache.Connect(cfg, logger); err != nil {
		return rt, err
	}
	rt.Cache = cache.New(rt.Redis, cachePrefix)

	fanout := notify.NewFanout().
		Add("mail", rt.Queue).
		Add("inbox", notify.NewInAppSink(rt.Repo)).
		Add("live", notify.NewLiveSink(rt.Redis, cfg.Redis.EventsChannel))

	rt.Lifecycle = lifecycle.NewService(rt.Repo, rt.Repo, fanout, rt.Repo, logger, lifecycle.Options{
		PendingThreshold: cfg.Lifecycle.FreePendingThreshold,
	})
	return rt, nil
}

func (rt *Runtime) Close() {
	if rt.Redis != nil {
		rt.Redis.Close()
	}
	if rt.channel != nil {
		rt.channel.Close()
	}
	if rt.conn != nil {
		rt.conn.Close()
	}
	if rt.DB != nil {
		rt.DB.Close()
	}
}
