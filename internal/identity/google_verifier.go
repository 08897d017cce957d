package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultJWKSUrl = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	lookupURLFmt   = "https://identitytoolkit.googleapis.com/v1/projects/%s/accounts:lookup"
	identityScope  = "https://www.googleapis.com/auth/identitytoolkit"

	jwksRefreshInterval = 1 * time.Hour
	lookupTimeout       = 10 * time.Second
)

type idTokenClaims struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates provider ID tokens against the provider's JWKS
// and fetches account records via the identity toolkit REST API using a
// service-account credential set.
type GoogleVerifier struct {
	projectID string
	issuer    string
	lookupURL string
	jwks      *keyfunc.JWKS
	client    *http.Client
}

// NewGoogleVerifier fetches the provider JWKS and prepares an authorized
// HTTP client from the service-account JSON. Both are required for boot.
func NewGoogleVerifier(ctx context.Context, projectID string, issuer string, jwksURL string, serviceAccountJSON []byte) (*GoogleVerifier, error) {
	if projectID == "" {
		return nil, errors.New("identity project id is required")
	}
	if issuer == "" {
		issuer = "https://securetoken.google.com/" + projectID
	}
	if jwksURL == "" {
		jwksURL = defaultJWKSUrl
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: jwksRefreshInterval,
		RefreshErrorHandler: func(err error) {
			slog.Error("Failed to refresh identity provider JWKS", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch identity provider JWKS: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, serviceAccountJSON, identityScope)
	if err != nil {
		return nil, fmt.Errorf("invalid identity service account credentials: %w", err)
	}
	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = lookupTimeout

	return &GoogleVerifier{
		projectID: projectID,
		issuer:    issuer,
		lookupURL: fmt.Sprintf(lookupURLFmt, projectID),
		jwks:      jwks,
		client:    client,
	}, nil
}

func (v *GoogleVerifier) VerifyToken(ctx context.Context, idToken string) Result[Claims] {
	var claims idTokenClaims
	token, err := jwt.ParseWithClaims(idToken, &claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fail[Claims](err.Error())
	}
	if !token.Valid {
		return fail[Claims]("identity token is not valid")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return fail[Claims]("identity token has no subject")
	}
	return ok(Claims{
		Subject:       subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		EmailVerified: claims.EmailVerified,
	})
}

type lookupRequest struct {
	LocalID []string `json:"localId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
		Disabled      bool   `json:"disabled"`
		PhotoURL      string `json:"photoUrl"`
	} `json:"users"`
}

func (v *GoogleVerifier) GetUser(ctx context.Context, subject string) Result[ProviderUser] {
	body, err := json.Marshal(lookupRequest{LocalID: []string{subject}})
	if err != nil {
		return fail[ProviderUser](err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.lookupURL, bytes.NewReader(body))
	if err != nil {
		return fail[ProviderUser](err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fail[ProviderUser](err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail[ProviderUser](fmt.Sprintf("account lookup returned %d: %s", resp.StatusCode, msg))
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return fail[ProviderUser](err.Error())
	}
	if len(lookup.Users) == 0 {
		return fail[ProviderUser]("account not found")
	}

	u := lookup.Users[0]
	return ok(ProviderUser{
		Subject:       u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
		PhotoURL:      u.PhotoURL,
	})
}

// Close stops the background JWKS refresh.
func (v *GoogleVerifier) Close() {
	v.jwks.EndBackground()
}
