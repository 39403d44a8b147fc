package loader

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

func countingDecoder(calls *int32, err error) DecodeFunc {
	return func(kind models.DatasetKind, filename string, r io.Reader) (models.Table, error) {
		atomic.AddInt32(calls, 1)
		if _, readErr := io.ReadAll(r); readErr != nil {
			return nil, readErr
		}
		if err != nil {
			return nil, err
		}
		return &models.CenterTable{}, nil
	}
}

func TestLoadDecodesOncePerContent(t *testing.T) {
	var calls int32
	cache := NewCache(nil, WithDecoder(countingDecoder(&calls, nil)))

	content := []byte("BMC_ID\nBMC001\n")
	first, err := cache.Load(models.DatasetCenters, "bmcs.csv", content)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := cache.Load(models.DatasetCenters, "copy-of-bmcs.csv", content)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if first != second {
		t.Fatal("expected the cached table to be returned")
	}
	if calls != 1 {
		t.Fatalf("expected a single decode, got %d", calls)
	}

	if _, err := cache.Load(models.DatasetFarmers, "bmcs.csv", content); err != nil {
		t.Fatalf("load as farmers: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected another decode for a different kind, got %d", calls)
	}
}

func TestLoadDoesNotCacheFailures(t *testing.T) {
	var calls int32
	boom := errors.New("boom")
	cache := NewCache(nil, WithDecoder(countingDecoder(&calls, boom)))

	for i := 0; i < 2; i++ {
		if _, err := cache.Load(models.DatasetCenters, "bmcs.csv", []byte("x")); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected each failing load to decode, got %d", calls)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected an empty cache, got %d entries", cache.Len())
	}
}

func TestLoadEvictsOldestEntry(t *testing.T) {
	var calls int32
	cache := NewCache(nil, WithDecoder(countingDecoder(&calls, nil)), WithMaxEntries(2))

	for _, body := range []string{"a", "b", "c"} {
		if _, err := cache.Load(models.DatasetCenters, "bmcs.csv", []byte(body)); err != nil {
			t.Fatalf("load %s: %v", body, err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}

	if _, err := cache.Load(models.DatasetCenters, "bmcs.csv", []byte("a")); err != nil {
		t.Fatalf("reload a: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected the evicted entry to decode again, got %d calls", calls)
	}
}

func TestLoadConcurrentCallers(t *testing.T) {
	var calls int32
	cache := NewCache(nil, WithDecoder(countingDecoder(&calls, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(models.DatasetCenters, "bmcs.csv", []byte("same")); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Fatalf("expected a single cached entry, got %d", cache.Len())
	}
}

func TestLoadWithDefaultDecoder(t *testing.T) {
	cache := NewCache(nil)

	table, err := cache.Load(models.DatasetCenters, "bmcs.csv", []byte("BMC_ID,District\nBMC001,Pune\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Kind() != models.DatasetCenters || table.Len() != 1 {
		t.Fatalf("unexpected table %+v", table)
	}
}
