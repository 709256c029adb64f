package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

type stubAPIKeyRepo struct {
	findFn func(ctx context.Context, tokenHash string) (domain.APIKey, error)
}

func (s *stubAPIKeyRepo) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	if s.findFn != nil {
		return s.findFn(ctx, tokenHash)
	}
	return domain.APIKey{}, domain.ErrNotFound
}

func (s *stubAPIKeyRepo) Upsert(context.Context, domain.APIKey) error { return nil }

func TestAuthServiceAuthenticateSuccess(t *testing.T) {
	repo := &stubAPIKeyRepo{findFn: func(_ context.Context, tokenHash string) (domain.APIKey, error) {
		if tokenHash != HashToken("token-1") {
			t.Fatalf("unexpected token hash: %s", tokenHash)
		}
		return domain.APIKey{Name: "ops", Role: domain.RoleAdmin, Active: true, CreatedAt: time.Now()}, nil
	}}

	svc := NewAuthService(repo)
	key, err := svc.Authenticate(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if key.Name != "ops" {
		t.Fatalf("expected ops, got %s", key.Name)
	}
}

func TestAuthServiceAuthenticateUnauthorized(t *testing.T) {
	svc := NewAuthService(&stubAPIKeyRepo{})
	_, err := svc.Authenticate(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Authenticate(context.Background(), "unknown")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown key, got %v", err)
	}
}

func TestAuthServiceRejectsInactiveKey(t *testing.T) {
	svc := NewAuthService(&stubAPIKeyRepo{findFn: func(context.Context, string) (domain.APIKey, error) {
		return domain.APIKey{Role: domain.RoleAdmin, Active: false}, nil
	}})
	if _, err := svc.Authenticate(context.Background(), "token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthServiceAuthorizeRoles(t *testing.T) {
	svc := NewAuthService(&stubAPIKeyRepo{findFn: func(context.Context, string) (domain.APIKey, error) {
		return domain.APIKey{Role: domain.RoleIngest, Active: true}, nil
	}})

	if _, err := svc.Authorize(context.Background(), "token", domain.RoleIngest); err != nil {
		t.Fatalf("ingest key should push mutations: %v", err)
	}
	if _, err := svc.Authorize(context.Background(), "token", domain.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
