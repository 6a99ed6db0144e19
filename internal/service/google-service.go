package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"kidoai-service/internal/apperror"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleService verifies Google ID tokens against Google's published signing
// keys and also drives the server-side OAuth code flow.
type GoogleService struct {
	ClientID     string
	CertsURL     string
	Client       *http.Client
	oauth2Config *oauth2.Config

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

type GoogleIdentity struct {
	Email    string
	Name     string
	GoogleID string
}

func NewGoogleService(clientID, clientSecret, redirectURL string) *GoogleService {
	return &GoogleService{
		ClientID: clientID,
		CertsURL: googleCertsURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// VerifyIDToken validates signature, expiry, issuer and audience of a Google
// ID token and extracts the identity fields the auth flow needs.
func (s *GoogleService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if s.ClientID == "" {
		return nil, apperror.Internal("Google sign-in not configured")
	}

	type googleClaims struct {
		jwt.RegisteredClaims
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	token, err := jwt.ParseWithClaims(idToken, &googleClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return s.signingKey(ctx, kid)
	})
	if err != nil {
		return nil, apperror.Unauthorized("Invalid Google token")
	}

	claims, ok := token.Claims.(*googleClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("Invalid Google token")
	}
	if iss := claims.Issuer; iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, apperror.Unauthorized("Invalid Google token")
	}
	audOK := false
	for _, aud := range claims.Audience {
		if aud == s.ClientID {
			audOK = true
			break
		}
	}
	if !audOK {
		return nil, apperror.Unauthorized("Invalid Google token")
	}
	if claims.Email == "" || claims.Subject == "" {
		return nil, apperror.Unauthorized("Invalid Google token")
	}

	return &GoogleIdentity{
		Email:    claims.Email,
		Name:     claims.Name,
		GoogleID: claims.Subject,
	}, nil
}

// AuthURL builds the provider consent URL for the code flow.
func (s *GoogleService) AuthURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for the user's identity via
// Google's userinfo endpoint.
func (s *GoogleService) ExchangeCode(ctx context.Context, code string) (*GoogleIdentity, error) {
	if s.oauth2Config.ClientSecret == "" {
		return nil, apperror.Internal("Google sign-in not configured")
	}

	token, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid authorization code")
	}

	client := s.oauth2Config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" || info.ID == "" {
		return nil, apperror.Unauthorized("Google account has no usable identity")
	}

	return &GoogleIdentity{Email: info.Email, Name: info.Name, GoogleID: info.ID}, nil
}

// signingKey returns the RSA key for kid, refreshing the cached JWKS when
// the key is unknown or the cache is older than an hour.
func (s *GoogleService) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[kid]; ok && time.Since(s.fetchedAt) < time.Hour {
		return key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.CertsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google certs request failed with status: %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to parse google certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}
	}
	s.keys = keys
	s.fetchedAt = time.Now()

	key, ok := s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no google signing key for kid %s", kid)
	}
	return key, nil
}
