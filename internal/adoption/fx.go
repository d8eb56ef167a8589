package adoption

import (
	"github.com/smallbiznis/adopet/internal/adoption/repository"
	"github.com/smallbiznis/adopet/internal/adoption/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adoption.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
