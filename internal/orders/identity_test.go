package orders

import (
	"strings"
	"sync"
	"testing"
)

func TestIdentityFormats(t *testing.T) {
	gen := NewIdentity()

	orderID := gen.NewOrderID()
	if !strings.HasPrefix(orderID, "ORD-") {
		t.Errorf("order id %q missing ORD- prefix", orderID)
	}

	tracking := gen.NewTrackingNumber()
	if !strings.HasPrefix(tracking, "TRK") {
		t.Errorf("tracking number %q missing TRK prefix", tracking)
	}
	for _, r := range tracking[3:] {
		if r < '0' || r > '9' {
			t.Errorf("tracking number %q payload is not numeric", tracking)
			break
		}
	}
}

func TestIdentityUniqueUnderConcurrency(t *testing.T) {
	gen := NewIdentity()

	const goroutines = 8
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := gen.NewOrderID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate order id %q", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("expected %d unique ids, got %d", goroutines*perGoroutine, len(seen))
	}
}
