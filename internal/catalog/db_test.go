package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func strPtr(v string) *string { return &v }

func mustCreateMedication(t *testing.T, repo *Repository, name, generic, strength string) *models.Medication {
	t.Helper()
	med, err := repo.CreateMedication(context.Background(), &models.Medication{
		Name:        name,
		GenericName: strPtr(generic),
		Strength:    strPtr(strength),
	})
	if err != nil {
		t.Fatalf("create medication %s: %v", name, err)
	}
	return med
}
