package animal

import (
	"github.com/smallbiznis/adopet/internal/animal/repository"
	"github.com/smallbiznis/adopet/internal/animal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("animal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
