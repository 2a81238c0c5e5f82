package repository

import "testing"

func TestJSONTextExprByDialectSQLite(t *testing.T) {
	got := jsonTextExprByDialect("sqlite", "body", []string{"shipping_address", "full_name"})
	want := "json_extract(body, '$.shipping_address.full_name')"
	if got != want {
		t.Fatalf("sqlite json expr mismatch, want %s got %s", want, got)
	}
}

func TestJSONTextExprByDialectPostgres(t *testing.T) {
	got := jsonTextExprByDialect("postgres", "body", []string{"shipping_address", "full_name"})
	want := "(body::jsonb #>> '{shipping_address,full_name}')"
	if got != want {
		t.Fatalf("postgres json expr mismatch, want %s got %s", want, got)
	}
}

func TestDocumentFieldExprRejectsInjection(t *testing.T) {
	if _, err := documentFieldExpr(nil, "status') OR 1=1 --"); err == nil {
		t.Fatalf("expected invalid path error")
	}
	expr, err := documentFieldExpr(nil, FieldCreatedAt)
	if err != nil || expr != "created_at" {
		t.Fatalf("reserved column mapping failed: %s %v", expr, err)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike("50%_off"); got != `50\%\_off` {
		t.Fatalf("escape like mismatch: %s", got)
	}
}
