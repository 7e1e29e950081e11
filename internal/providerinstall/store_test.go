package providerinstall_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greentic/messaging-fabric/internal/providerinstall"
	"github.com/greentic/messaging-fabric/pkg/models"
)

func testInstall() models.ProviderInstallState {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.ProviderInstallState{
		Tenant:           "acme",
		ProviderID:       "jira",
		InstallID:        "inst-1",
		PackID:           "pack-jira",
		PackVersion:      "1.0.0",
		CreatedAt:        now,
		UpdatedAt:        now,
		RoutingPlatform:  models.PlatformSlack,
		RoutingChannelID: "C123",
	}
}

func TestMemory_InsertAndGet(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()
	install := testInstall()

	if err := store.Insert(ctx, install); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Get(ctx, "acme", "jira", "inst-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PackID != "pack-jira" {
		t.Errorf("PackID = %q, want pack-jira", got.PackID)
	}
}

func TestMemory_InsertDuplicateErrors(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()
	install := testInstall()

	if err := store.Insert(ctx, install); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	err := store.Insert(ctx, install)
	if err == nil {
		t.Fatal("expected error inserting a duplicate install_id, got nil")
	}
	var dup *providerinstall.ErrDuplicateInstall
	if !errors.As(err, &dup) {
		t.Fatalf("expected *ErrDuplicateInstall, got %T: %v", err, err)
	}
}

func TestMemory_GetMissingReturnsNotFound(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()

	_, err := store.Get(ctx, "acme", "jira", "missing")
	if err == nil {
		t.Fatal("expected error for missing install, got nil")
	}
	var notFound *providerinstall.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *ErrNotFound, got %T: %v", err, err)
	}
}

func TestMemory_GetByRoutingResolvesInstall(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()
	install := testInstall()
	if err := store.Insert(ctx, install); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.GetByRouting(ctx, "acme", "jira", models.PlatformSlack, "C123")
	if err != nil {
		t.Fatalf("GetByRouting: %v", err)
	}
	if got.InstallID != "inst-1" {
		t.Errorf("InstallID = %q, want inst-1", got.InstallID)
	}
}

func TestMemory_GetByRoutingMissingChannelReturnsNotFound(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()
	if err := store.Insert(ctx, testInstall()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := store.GetByRouting(ctx, "acme", "jira", models.PlatformSlack, "C-other")
	if err == nil {
		t.Fatal("expected error for unrouted channel, got nil")
	}
}

func TestMemory_ListByTenantFiltersOtherTenants(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()

	acme := testInstall()
	other := testInstall()
	other.Tenant = "globex"
	other.InstallID = "inst-2"

	if err := store.Insert(ctx, acme); err != nil {
		t.Fatalf("Insert acme: %v", err)
	}
	if err := store.Insert(ctx, other); err != nil {
		t.Fatalf("Insert globex: %v", err)
	}

	got := store.ListByTenant(ctx, "acme")
	if len(got) != 1 {
		t.Fatalf("ListByTenant(acme) returned %d installs, want 1", len(got))
	}
	if got[0].Tenant != "acme" {
		t.Errorf("Tenant = %q, want acme", got[0].Tenant)
	}
}

func TestMemory_DeleteRemovesBothIndexes(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()
	install := testInstall()
	if err := store.Insert(ctx, install); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := store.Delete(ctx, "acme", "jira", "inst-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Get(ctx, "acme", "jira", "inst-1"); err == nil {
		t.Fatal("expected Get to fail after Delete")
	}
	if _, err := store.GetByRouting(ctx, "acme", "jira", models.PlatformSlack, "C123"); err == nil {
		t.Fatal("expected GetByRouting to fail after Delete")
	}
}

func TestMemory_DeleteMissingReturnsNotFound(t *testing.T) {
	store := providerinstall.NewMemory()
	ctx := context.Background()

	err := store.Delete(ctx, "acme", "jira", "missing")
	if err == nil {
		t.Fatal("expected error deleting a missing install, got nil")
	}
}
