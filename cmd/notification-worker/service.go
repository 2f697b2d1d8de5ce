package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies map[string]pinger
	Consumer     runner
}

// Service gates the notification consumer behind dependency checks.
type Service struct {
	logg     *logger.Logger
	deps     map[string]pinger
	consumer runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	for name, dep := range params.Dependencies {
		if dep == nil {
			return nil, fmt.Errorf("%s client is required", name)
		}
	}
	return &Service{logg: params.Logger, deps: params.Dependencies, consumer: params.Consumer}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until the consumer stops. A canceled context is a clean exit.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		return err
	}
	s.logg.Info(ctx, "worker context canceled")
	return nil
}
