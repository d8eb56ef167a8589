package auth

import (
	"github.com/smallbiznis/adopet/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(token.NewManager),
)
