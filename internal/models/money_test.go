package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyUnmarshalAcceptsNumberAndString(t *testing.T) {
	var fromNumber Money
	if err := json.Unmarshal([]byte(`29.999`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "30.00" {
		t.Fatalf("number money want 30.00 got %s", fromNumber.String())
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"5.99"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.String() != "5.99" {
		t.Fatalf("string money want 5.99 got %s", fromString.String())
	}
}

func TestMoneyArithmeticKeepsTwoDecimals(t *testing.T) {
	got := MustMoney("12.00").MulInt(2).Add(MustMoney("29.00"))
	if got.String() != "53.00" {
		t.Fatalf("money want 53.00 got %s", got.String())
	}
}

func TestCanonicalOptionsIgnoresKeyOrder(t *testing.T) {
	a := CanonicalOptions(map[string]string{"size": "M", "color": "red"})
	b := CanonicalOptions(map[string]string{"color": "red", "size": "M"})
	if a != b {
		t.Fatalf("canonical options differ: %s vs %s", a, b)
	}
	if CanonicalOptions(nil) != CanonicalOptions(map[string]string{}) {
		t.Fatalf("nil and empty options should share a key")
	}
	if LineKey("7", map[string]string{"size": "M"}) == LineKey("7", map[string]string{"size": "L"}) {
		t.Fatalf("different options should produce different keys")
	}
}

func TestCartLineCloneIsDeep(t *testing.T) {
	original := CartLine{ProductID: "1", Quantity: 1, Options: map[string]string{"size": "M"}}
	cloned := original.Clone()
	cloned.Options["size"] = "L"
	if original.Options["size"] != "M" {
		t.Fatalf("clone should not share options map")
	}
}

func TestDocumentJSONScanAcceptsString(t *testing.T) {
	var body JSON
	if err := body.Scan(`{"status":"pending"}`); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if body["status"] != "pending" {
		t.Fatalf("unexpected body: %v", body)
	}
}
