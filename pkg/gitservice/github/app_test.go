package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, pemBytes
}

func TestAppJWT(t *testing.T) {
	key, pemBytes := testKey(t)

	app, err := NewApp(1234, pemBytes, Options{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	signed, err := app.JWT()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		t.Fatalf("jwt does not verify: %v", err)
	}
	if claims.Issuer != "1234" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
	if lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time); lifetime > jwtLifetime+jwtClockDrift {
		t.Errorf("jwt lifetime %s too long", lifetime)
	}
}

func TestNewAppInvalidKey(t *testing.T) {
	if _, err := NewApp(1, []byte("not a key"), Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAppTokenSource(t *testing.T) {
	_, pemBytes := testKey(t)

	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/app/installations/42/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing app jwt, authorization = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token":"ghs_installation","expires_at":%q}`,
			time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	app, err := NewApp(1234, pemBytes, Options{BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	ts := app.TokenSource(context.Background(), 42)
	for i := 0; i < 2; i++ {
		token, err := ts.Token()
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if token.AccessToken != "ghs_installation" {
			t.Errorf("token = %q", token.AccessToken)
		}
	}
	if calls != 1 {
		t.Errorf("installation token requested %d times, want 1", calls)
	}
}
