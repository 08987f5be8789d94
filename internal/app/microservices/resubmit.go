package microservices

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/triplog/config"
	"github.com/Temutjin2k/triplog/internal/adapter/boltstore"
	repo "github.com/Temutjin2k/triplog/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/triplog/internal/adapter/rabbit"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/tracking"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/postgres"
	"github.com/Temutjin2k/triplog/pkg/rabbit"
)

var ErrResubmitIncomplete = errors.New("some retained trips could not be saved")

// ResubmitService pushes every trip retained in the pending store to the database once and exits.
type ResubmitService struct {
	postgresDB *postgres.PostgreDB
	pending    *boltstore.PendingStore
	rabbit     *rabbit.RabbitMQ
	trips      *tracking.Service

	log logger.Logger
}

func NewResubmit(ctx context.Context, cfg config.Config, log logger.Logger) (_ *ResubmitService, err error) {
	s := &ResubmitService{log: log}
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

	var publisher tracking.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		s.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			log.Error(ctx, "Failed to connect to rabbitmq", err)
			return nil, err
		}
		publisher = rabbitadapter.NewTripPublisher(s.rabbit)
	}

	deps := tracking.Deps{
		Sink:    repo.NewTripRepo(s.postgresDB.Pool),
		Pending: s.pending,
	}
	s.trips = tracking.NewService(ctx, trackingConfig(cfg.Tracking), deps, publisher, log)

	return s, nil
}

func (s *ResubmitService) Start(ctx context.Context) error {
	defer s.close(ctx)

	ctx = wrap.WithAction(ctx, types.ActionTripResubmitted)
	result, err := s.trips.Resubmit(ctx, "")
	if err != nil {
		return err
	}

	s.log.Info(ctx, "resubmission finished", "saved", len(result.Saved), "failed", len(result.Failed))
	if len(result.Failed) > 0 {
		return fmt.Errorf("%w: %d left in pending store", ErrResubmitIncomplete, len(result.Failed))
	}
	return nil
}

func (s *ResubmitService) close(ctx context.Context) {
	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
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
