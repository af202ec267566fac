package unified

import (
	"github.com/kariemSeiam/Hvar-Hub/internal/unified/service"
	"go.uber.org/fx"
)

var Module = fx.Module("unified.service",
	fx.Provide(service.NewService),
)
