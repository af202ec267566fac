package carrier

import (
	"time"

	"github.com/kariemSeiam/Hvar-Hub/internal/carrier/bosta"
	"github.com/kariemSeiam/Hvar-Hub/internal/carrier/domain"
	"github.com/kariemSeiam/Hvar-Hub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("carrier.gateway",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Gateway {
		return bosta.NewClient(bosta.Config{
			BaseURL:  cfg.Carrier.BaseURL,
			Token:    cfg.Carrier.Token,
			Timeout:  time.Duration(cfg.Carrier.TimeoutSeconds) * time.Second,
			CacheTTL: time.Duration(cfg.Carrier.CacheTTLSeconds) * time.Second,
		}, log)
	}),
)
