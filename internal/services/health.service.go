package services

import (
	"context"

	"github.com/remita/exchange-gateway/pkg/pg"
)

type HealthService struct {
	db *pg.DB
}

func NewHealthService(db *pg.DB) *HealthService {
	return &HealthService{db: db}
}

// Get pings the write database. Redis and the upstream providers degrade
// gracefully, so only the database gates readiness.
func (s *HealthService) Get() error {
	sqlDB, err := s.db.Write(context.Background()).DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
