package main

import (
	"io"
	"regexp"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestMigrationsPaired(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		t.Fatalf("iofs.New() error = %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}

	for {
		up, _, err := src.ReadUp(version)
		if err != nil {
			t.Fatalf("ReadUp(%d) error = %v", version, err)
		}
		up.Close()

		down, _, err := src.ReadDown(version)
		if err != nil {
			t.Fatalf("ReadDown(%d) error = %v", version, err)
		}
		down.Close()

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
}

func TestInitialSchemaValueDate(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		t.Fatalf("iofs.New() error = %v", err)
	}
	defer src.Close()

	r, _, err := src.ReadUp(1)
	if err != nil {
		t.Fatalf("ReadUp(1) error = %v", err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	col := regexp.MustCompile(`(?m)^\s*value_date\s+(\w+)`).FindSubmatch(body)
	if col == nil {
		t.Fatal("value_date column not found")
	}
	if got := string(col[1]); got != "DATE" {
		t.Errorf("value_date type = %s, want DATE", got)
	}
}
