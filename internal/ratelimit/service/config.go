package service

import (
	"time"

	"unireg/internal/platform/config"
	"unireg/internal/ratelimit/models"
)

// Config carries the admission-control knobs in service form.
type Config struct {
	Disabled    bool
	Window      time.Duration
	Quotas      map[models.TrafficClass]int
	BanDuration time.Duration
}

// FromServerConfig adapts the environment-derived configuration.
func FromServerConfig(cfg config.RateLimitConfig) Config {
	return Config{
		Disabled: cfg.Disabled,
		Window:   cfg.Window,
		Quotas: map[models.TrafficClass]int{
			models.ClassUpload:  cfg.UploadQuota,
			models.ClassPrivate: cfg.PrivateQuota,
			models.ClassRead:    cfg.ReadQuota,
		},
		BanDuration: cfg.BanDuration,
	}
}

func (c Config) quotaFor(class models.TrafficClass) int {
	return c.Quotas[class]
}
