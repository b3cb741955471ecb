package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
)

type pairKey struct{ a, b uuid.UUID }

// fakeFinder stores interactions by their storage order only, so lookups in
// the other order exercise the symmetric check.
type fakeFinder struct {
	stored map[pairKey]*models.DrugInteraction
	calls  int
	err    error
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{stored: map[pairKey]*models.DrugInteraction{}}
}

func (f *fakeFinder) add(a, b uuid.UUID, severity enums.Severity, description string) {
	f.stored[pairKey{a, b}] = &models.DrugInteraction{ID: uuid.New(), Drug1ID: a, Drug2ID: b, Severity: severity, Description: description}
}

func (f *fakeFinder) FindInteraction(_ context.Context, a, b uuid.UUID) (*models.DrugInteraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if hit, ok := f.stored[pairKey{a, b}]; ok {
		return hit, nil
	}
	if hit, ok := f.stored[pairKey{b, a}]; ok {
		return hit, nil
	}
	return nil, nil
}

type fakeCatalog struct {
	meds     []models.Medication
	patients map[uuid.UUID]*models.Patient
}

func (f *fakeCatalog) ListMedicationsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Medication, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Medication{}
	for _, med := range f.meds {
		if want[med.ID] {
			out = append(out, med)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindPatient(_ context.Context, id uuid.UUID) (*models.Patient, error) {
	if p, ok := f.patients[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
}

type fakeKV struct {
	data   map[string]string
	getErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func (f *fakeKV) InteractionKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "rx:interaction:" + a + ":" + b
}

var errBoom = errors.New("boom")

func strPtr(v string) *string { return &v }
