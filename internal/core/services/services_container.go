package services

import (
	portsrepo "github.com/anvko/shop_admin_app/internal/core/ports/repositories"
	portssvc "github.com/anvko/shop_admin_app/internal/core/ports/services"
	"github.com/anvko/shop_admin_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo, repos.SessionRepo)
	container.Token = NewTokenService(cfg)
	container.Provider = NewProviderVerifier(cfg)
	container.Auth = NewAuthService(cfg, repos, container.Token)

	return container
}
