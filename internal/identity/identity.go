package identity

import "context"

// Claims is the verified identity extracted from a provider token.
type Claims struct {
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// ProviderUser is the provider's own record of an account.
type ProviderUser struct {
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
	Disabled      bool
	PhotoURL      string
}

// Result is the discriminated outcome of a provider call. Provider failures
// are carried as a message, never as a Go error crossing this boundary.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// Verifier validates identity tokens and looks up provider accounts.
type Verifier interface {
	VerifyToken(ctx context.Context, idToken string) Result[Claims]
	GetUser(ctx context.Context, subject string) Result[ProviderUser]
}
