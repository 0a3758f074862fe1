package database

import "testing"

func TestIsDBDSNRecognizesSupportedSchemes(t *testing.T) {
	for _, dsn := range []string{"sqlite::memory:", "postgres://user@host/db", "mysql://user@host/db", "sqlserver://user@host/db"} {
		if !IsDBDSN(dsn) {
			t.Fatalf("expected %q to be recognized as a DB DSN", dsn)
		}
	}
}

func TestIsDBDSNRejectsStaticLinkPaths(t *testing.T) {
	for _, path := range []string{"lib.ra", "lib.rsi", "./modules/helper.ra"} {
		if IsDBDSN(path) {
			t.Fatalf("expected %q to not be recognized as a DB DSN", path)
		}
	}
}

func TestLoadSQLiteInMemoryConnects(t *testing.T) {
	ext, err := Load("sqlite::memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	connected, ok := ext.Exports["connected"]
	if !ok {
		t.Fatal("expected connected export")
	}
	if !connected.ToBool() {
		t.Fatal("expected connected=true for sqlite::memory:")
	}
	if ext.Exports["driver"].ValueStr() != "sqlite" {
		t.Fatalf("expected driver=sqlite, got %s", ext.Exports["driver"].ValueStr())
	}
}

func TestLoadUnrecognizedSchemeFails(t *testing.T) {
	if _, err := Load("redis://localhost"); err == nil {
		t.Fatal("expected error for unrecognized DSN scheme")
	}
}
