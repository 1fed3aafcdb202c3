package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestRegisterIdempotent checks that repeated registration does not panic
func TestRegisterIdempotent(t *testing.T) {
	Register()
	Register()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "songle_catalog_songs" {
			found = true
		}
	}
	if !found {
		t.Error("songle_catalog_songs not registered")
	}
}
