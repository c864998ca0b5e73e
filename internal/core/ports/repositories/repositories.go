package repositories

// RepositoryProvider bundles every repository implementation so wiring code
// can pass them around as one unit.
type RepositoryProvider struct {
	UserRepo        UserRepository
	CredentialRepo  CredentialRepository
	AccountLinkRepo AccountLinkRepository
	SessionRepo     SessionRepository
}
