package organization

import (
	"github.com/smallbiznis/adopet/internal/organization/repository"
	"github.com/smallbiznis/adopet/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
