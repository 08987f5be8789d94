package microservices

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	paho "github.com/eclipse/paho.mqtt.golang"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/triplog/config"
	"github.com/Temutjin2k/triplog/internal/adapter/boltstore"
	"github.com/Temutjin2k/triplog/internal/adapter/http/handler"
	"github.com/Temutjin2k/triplog/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/triplog/internal/adapter/http/ws"
	mqttsource "github.com/Temutjin2k/triplog/internal/adapter/mqtt"
	repo "github.com/Temutjin2k/triplog/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/triplog/internal/adapter/rabbit"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/auth"
	"github.com/Temutjin2k/triplog/internal/service/tracking"
	"github.com/Temutjin2k/triplog/pkg/logger"
	"github.com/Temutjin2k/triplog/pkg/mqtt"
	"github.com/Temutjin2k/triplog/pkg/postgres"
	"github.com/Temutjin2k/triplog/pkg/rabbit"
	"github.com/Temutjin2k/triplog/pkg/redis"
	ws "github.com/Temutjin2k/triplog/pkg/wsHub"
)

var ErrRabbitNotConfigured = errors.New("rabbitmq position source requires RABBITMQ_HOST")

type TrackerService struct {
	postgresDB *postgres.PostgreDB
	pending    *boltstore.PendingStore
	redis      *goredis.Client
	rabbit     *rabbit.RabbitMQ
	mqtt       paho.Client
	hub        *ws.ConnectionHub
	trips      *tracking.Service
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

func NewTracker(ctx context.Context, cfg config.Config, log logger.Logger) (_ *TrackerService, err error) {
	s := &TrackerService{cfg: cfg, log: log}
	// partially opened resources are released when a later step fails
	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

	s.postgresDB, err = postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	s.pending, err = boltstore.Open(cfg.Storage.PendingPath)
	if err != nil {
		log.Error(ctx, "Failed to open pending store", err)
		return nil, err
	}

	if cfg.Redis.Enabled() {
		s.redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Error(ctx, "Failed to connect to redis", err)
			return nil, err
		}
	}

	if cfg.RabbitMQ.Enabled() {
		s.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			log.Error(ctx, "Failed to connect to rabbitmq", err)
			return nil, err
		}
	}

	geo, err := newGeoStack(ctx, cfg, s.redis, log)
	if err != nil {
		log.Error(ctx, "Failed to setup geo providers", err)
		return nil, err
	}
	log.Info(ctx, "geocode chain configured", "providers", geo.providers)

	s.hub = ws.NewConnHub(log)
	relay := wshandler.NewRelay(s.hub, log)

	deps := tracking.Deps{
		Distance:  geo.distance,
		Addresses: geo.addresses,
		Sink:      repo.NewTripRepo(s.postgresDB.Pool),
		Pending:   s.pending,
		Notifier:  relay,
	}

	// fixes arriving over the websocket reach the session through the relay only when it is the source
	var wsRelay *wshandler.Relay
	switch cfg.Tracking.Source {
	case types.SourceRabbitMQ:
		if s.rabbit == nil {
			return nil, ErrRabbitNotConfigured
		}
		deps.Source = rabbitadapter.NewPositionConsumer(s.rabbit, log)
	case types.SourceMQTT:
		s.mqtt, err = mqtt.Connect(ctx, cfg.MQTT, log)
		if err != nil {
			log.Error(ctx, "Failed to connect to mqtt broker", err)
			return nil, err
		}
		deps.Source = mqttsource.NewPositionSubscriber(s.mqtt, cfg.MQTT.TopicPrefix, byte(cfg.MQTT.QoS), log)
	default:
		deps.Source = relay
		wsRelay = relay
	}

	var publisher tracking.EventPublisher
	if s.rabbit != nil {
		publisher = rabbitadapter.NewTripPublisher(s.rabbit)
	}

	s.trips = tracking.NewService(ctx, trackingConfig(cfg.Tracking), deps, publisher, log)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	tracker := wshandler.NewTracker(s.hub, wsRelay, s.trips, log)

	s.httpServer, err = server.New(cfg.HTTP.Port, s.trips, tracker, tokens, s.healthChecks(), log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		return nil, err
	}

	return s, nil
}

func (s *TrackerService) healthChecks() map[string]handler.Checker {
	checks := map[string]handler.Checker{
		"postgres": func(ctx context.Context) error { return s.postgresDB.Pool.Ping(ctx) },
	}
	if s.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }
	}
	if s.rabbit != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if s.rabbit.IsConnectionClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	if s.mqtt != nil {
		checks["mqtt"] = func(context.Context) error {
			if !s.mqtt.IsConnectionOpen() {
				return errors.New("not connected")
			}
			return nil
		}
	}
	return checks
}

func (s *TrackerService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "tracker service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Tracker service has been started", "source", s.cfg.Tracking.Source)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *TrackerService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	// in-progress trips are finalized while the sink is still open
	if s.trips != nil {
		s.trips.Shutdown(ctx)
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.mqtt != nil {
		s.mqtt.Disconnect(250)
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	if s.pending != nil {
		if err := s.pending.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close pending store", "error", err.Error())
		}
	}

	if s.postgresDB != nil && s.postgresDB.Pool != nil {
		s.postgresDB.Close()
	}
}
