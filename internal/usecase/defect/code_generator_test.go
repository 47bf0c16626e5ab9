package defect

import (
	"context"
	"sync"
	"testing"
)

func TestCodeGeneratorMonotonic(t *testing.T) {
	deps := setupService(t)
	gen := deps.service.codes
	ctx := context.Background()

	first, err := gen.NextCode(ctx, "test_seq", "DEF")
	if err != nil {
		t.Fatalf("NextCode() error = %v", err)
	}
	if first != "DEF-000001" {
		t.Fatalf("NextCode() = %q", first)
	}

	second, err := gen.NextValue(ctx, "test_seq")
	if err != nil {
		t.Fatalf("NextValue() error = %v", err)
	}
	if second != 2 {
		t.Fatalf("NextValue() = %d, want 2", second)
	}
}

func TestCodeGeneratorConcurrentCallersNeverShareAValue(t *testing.T) {
	deps := setupService(t)
	gen := deps.service.codes
	ctx := context.Background()

	const callers = 8
	values := make([]uint64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := gen.NextValue(ctx, "test_seq")
			if err != nil {
				t.Errorf("NextValue() error = %v", err)
				return
			}
			values[i] = value
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, callers)
	for _, value := range values {
		if value == 0 || value > callers {
			t.Fatalf("value out of range: %d", value)
		}
		if seen[value] {
			t.Fatalf("value handed out twice: %d", value)
		}
		seen[value] = true
	}
}

func TestCodeGeneratorIndependentSequences(t *testing.T) {
	deps := setupService(t)
	gen := deps.service.codes
	ctx := context.Background()

	if _, err := gen.NextValue(ctx, "seq_a"); err != nil {
		t.Fatalf("NextValue() error = %v", err)
	}
	value, err := gen.NextValue(ctx, "seq_b")
	if err != nil {
		t.Fatalf("NextValue() error = %v", err)
	}
	if value != 1 {
		t.Fatalf("fresh sequence value = %d, want 1", value)
	}
}
