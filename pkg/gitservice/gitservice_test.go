package gitservice_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/circleous/repo-maker/pkg/gitservice"
)

func TestNewGitServiceToken(t *testing.T) {
	ctx := context.Background()
	p, err := gitservice.NewGitService(ctx, &gitservice.Options{GithubToken: "token"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	a, err := p.ForInstallation(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	b, _ := p.ForInstallation(ctx, 2)
	if a != b {
		t.Error("token provider should share one client across installations")
	}
}

func TestNewGitServiceApp(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	ctx := context.Background()
	p, err := gitservice.NewGitService(ctx, &gitservice.Options{AppID: 7, PrivateKey: pemBytes})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if _, err := p.ForInstallation(ctx, 0); err == nil {
		t.Error("expected error for delivery without installation")
	}

	a, err := p.ForInstallation(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	b, _ := p.ForInstallation(ctx, 1)
	c, _ := p.ForInstallation(ctx, 2)
	if a != b {
		t.Error("clients should be cached per installation")
	}
	if a == c {
		t.Error("installations should not share a client")
	}
}

func TestNewGitServiceMissingAuth(t *testing.T) {
	if _, err := gitservice.NewGitService(context.Background(), &gitservice.Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := gitservice.NewGitService(context.Background(), &gitservice.Options{AppID: 1}); err == nil {
		t.Fatal("expected error for app without private key")
	}
}
