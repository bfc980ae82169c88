package health

import (
	"context"
	"os"
	"runtime"
	"time"
)

// Pinger lo implementa storage.Store.
type Pinger interface {
	Ping(ctx context.Context) error
	DriverName() string
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	DBConnected    = "connected"
	DBDisconnected = "disconnected"
)

type Report struct {
	Status    string    `json:"status" example:"healthy"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database" example:"connected"`
}

type DetailedReport struct {
	Status      string         `json:"status" example:"healthy"`
	Timestamp   time.Time      `json:"timestamp"`
	System      SystemInfo     `json:"system"`
	Environment string         `json:"environment" example:"development"`
	Database    DatabaseReport `json:"database"`
}

type SystemInfo struct {
	Platform        string `json:"platform" example:"linux"`
	PlatformVersion string `json:"platform_version" example:"amd64"`
	GoVersion       string `json:"go_version" example:"go1.25.4"`
	Hostname        string `json:"hostname,omitempty"`
}

type DatabaseReport struct {
	Type   string `json:"type" example:"sqlite"`
	Status string `json:"status" example:"connected"`
}

type Service struct {
	db          Pinger
	environment string
	timeout     time.Duration
	now         func() time.Time
}

func NewService(db Pinger, environment string) *Service {
	if environment == "" {
		environment = "development"
	}
	return &Service{
		db:          db,
		environment: environment,
		timeout:     2 * time.Second,
		now:         time.Now,
	}
}

// Check hace ping a la base; healthy solo si responde dentro del timeout.
func (s *Service) Check(ctx context.Context) Report {
	db := s.dbStatus(ctx)
	return Report{
		Status:    overall(db),
		Timestamp: s.now().UTC(),
		Database:  db,
	}
}

func (s *Service) Details(ctx context.Context) DetailedReport {
	db := s.dbStatus(ctx)
	host, _ := os.Hostname()

	return DetailedReport{
		Status:    overall(db),
		Timestamp: s.now().UTC(),
		System: SystemInfo{
			Platform:        runtime.GOOS,
			PlatformVersion: runtime.GOARCH,
			GoVersion:       runtime.Version(),
			Hostname:        host,
		},
		Environment: s.environment,
		Database: DatabaseReport{
			Type:   s.db.DriverName(),
			Status: db,
		},
	}
}

func (s *Service) dbStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return DBDisconnected
	}
	return DBConnected
}

func overall(db string) string {
	if db == DBConnected {
		return StatusHealthy
	}
	return StatusUnhealthy
}
