package order

import (
	"github.com/kariemSeiam/Hvar-Hub/internal/order/repository"
	"github.com/kariemSeiam/Hvar-Hub/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
