package serviceaction

import (
	"github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/repository"
	"github.com/kariemSeiam/Hvar-Hub/internal/serviceaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("serviceaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
