package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	m := New()

	if m.Transactions == nil || m.AccountsCreated == nil || m.SnapshotWriteErrors == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.Transactions.WithLabelValues("deposit", "applied").Inc()
	m.AccountsCreated.Inc()

	metricFamilies, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("deposit", "applied")); got != 1 {
		t.Fatalf("expected 1 applied deposit, got %v", got)
	}
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	first := New()
	second := New()

	first.MalformedRecords.Inc()

	if got := testutil.ToFloat64(second.MalformedRecords); got != 0 {
		t.Fatalf("expected second registry untouched, got %v", got)
	}
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.AccountsLocked.Set(2)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !strings.Contains(string(data), "txengine_accounts_locked 2") {
		t.Fatalf("expected locked gauge in output, got %q", string(data))
	}
}
