package expensecategory

import (
	"github.com/smallbiznis/adopet/internal/expensecategory/repository"
	"github.com/smallbiznis/adopet/internal/expensecategory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("expensecategory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
