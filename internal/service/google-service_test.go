package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testClientID = "test-client-id.apps.googleusercontent.com"

type testSigner struct {
	key *rsa.PrivateKey
	srv *httptest.Server
}

// newTestSigner stands in for Google: it signs ID tokens with a local RSA
// key and serves the matching JWKS document.
func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwks := map[string]any{
			"keys": []map[string]string{
				{
					"kid": "test-kid",
					"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
				},
			},
		}
		json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)

	return &testSigner{key: key, srv: srv}
}

func (s *testSigner) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-kid"
	signed, err := token.SignedString(s.key)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func googleClaims(mutate func(jwt.MapClaims)) jwt.MapClaims {
	claims := jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   testClientID,
		"sub":   "10987654321",
		"email": "kid@example.com",
		"name":  "Kid Example",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}
	return claims
}

func newTestGoogleService(signer *testSigner) *GoogleService {
	gs := NewGoogleService(testClientID, "", "")
	gs.CertsURL = signer.srv.URL
	return gs
}

func TestVerifyIDToken(t *testing.T) {
	signer := newTestSigner(t)
	gs := newTestGoogleService(signer)

	token := signer.sign(t, googleClaims(nil))
	identity, err := gs.VerifyIDToken(context.Background(), token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if identity.Email != "kid@example.com" {
		t.Errorf("Expected email kid@example.com, got %s", identity.Email)
	}
	if identity.Name != "Kid Example" {
		t.Errorf("Expected name Kid Example, got %s", identity.Name)
	}
	if identity.GoogleID != "10987654321" {
		t.Errorf("Expected google id 10987654321, got %s", identity.GoogleID)
	}
}

func TestVerifyIDTokenRejects(t *testing.T) {
	signer := newTestSigner(t)
	gs := newTestGoogleService(signer)

	testCases := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"missing email", func(c jwt.MapClaims) { delete(c, "email") }},
		{"missing subject", func(c jwt.MapClaims) { delete(c, "sub") }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := signer.sign(t, googleClaims(tc.mutate))
			if _, err := gs.VerifyIDToken(context.Background(), token); err == nil {
				t.Error("Expected verification to fail")
			}
		})
	}
}

func TestVerifyIDTokenWrongKey(t *testing.T) {
	signer := newTestSigner(t)
	otherSigner := newTestSigner(t)

	// Service trusts signer's JWKS; token is signed with a different key.
	gs := newTestGoogleService(signer)
	token := otherSigner.sign(t, googleClaims(nil))

	if _, err := gs.VerifyIDToken(context.Background(), token); err == nil {
		t.Error("Expected verification to fail for foreign signature")
	}
}

func TestVerifyIDTokenUnconfigured(t *testing.T) {
	gs := NewGoogleService("", "", "")
	if _, err := gs.VerifyIDToken(context.Background(), "whatever"); err == nil {
		t.Error("Expected error when client id is unset")
	}
}
