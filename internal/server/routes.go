package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/garagedesk/internal/api/v1"
	"github.com/gosuda/garagedesk/internal/account"
)

func registerPublicRoutes(api huma.API, svc *account.Service) {
	v1.RegisterHealthRoutes(api)
	v1.RegisterAuthRoutes(api, svc)
}

func registerAccountRoutes(api huma.API, svc *account.Service) {
	v1.RegisterProfileRoutes(api, svc)
	v1.RegisterOnboardingRoutes(api, svc)
}
