package assets

import (
	"strings"
	"testing"
)

func TestMigrations(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no embedded migrations")
	}
	if ms[0].Name != "0001_kv.sql" {
		t.Errorf("first migration %q, want 0001_kv.sql", ms[0].Name)
	}
	if !strings.Contains(ms[0].SQL, "CREATE TABLE IF NOT EXISTS kv") {
		t.Error("kv migration should create the kv table")
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Name >= ms[i].Name {
			t.Errorf("migrations not sorted: %q before %q", ms[i-1].Name, ms[i].Name)
		}
	}
}
