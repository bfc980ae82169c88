// healthcheck es el probe del contenedor: sale con 0 solo si /api/v1/health
// responde healthy.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"petstore/internal/config"
	"petstore/internal/domain/health"
	"petstore/internal/platform/httpclient"
	"petstore/internal/platform/logger"
	"petstore/internal/router"

	"github.com/ilyakaznacheev/cleanenv"
)

const healthPath = router.APIPrefix + "/health"

type probeConfig struct {
	// BaseURL del servicio; si está vacía se arma con PORT.
	BaseURL string          `env:"HEALTHCHECK_BASE_URL"`
	Timeout config.Duration `env:"HEALTHCHECK_TIMEOUT" env-default:"3s"`
}

func main() {
	log := logger.NewFromEnv().With(map[string]any{"component": "healthcheck"})

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	var probe probeConfig
	if err := cleanenv.ReadEnv(&probe); err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	base := probe.BaseURL
	if base == "" {
		base = "http://127.0.0.1" + cfg.HTTP.Addr()
	}

	if err := check(context.Background(), base, probe.Timeout.Duration()); err != nil {
		log.Error("service unhealthy", map[string]any{
			"base_url": base,
			"status":   httpclient.StatusCode(err),
			"error":    err.Error(),
		})
		os.Exit(1)
	}
}

func check(ctx context.Context, baseURL string, timeout time.Duration) error {
	client, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var report health.Report
	if err := client.GetJSON(ctx, healthPath, &report); err != nil {
		return err
	}
	if report.Status != health.StatusHealthy {
		return fmt.Errorf("reported status %q", report.Status)
	}
	return nil
}
