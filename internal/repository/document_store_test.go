package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDocumentStoreTest(t *testing.T) *GormDocumentStore {
	t.Helper()
	dsn := fmt.Sprintf("file:documents_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewDocumentStore(db)
}

func TestDocumentStoreGetMissingReturnsNil(t *testing.T) {
	store := setupDocumentStoreTest(t)
	doc, err := store.GetDocument(context.Background(), constants.CollectionUsers, "missing")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document, got %+v", doc)
	}
}

func TestDocumentStoreSetReplacesAndBumpsVersion(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	if _, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", models.JSON{"phone": "1", "newsletter": true}); err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	doc, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", models.JSON{"phone": "2"})
	if err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if doc.Version != 2 {
		t.Fatalf("version want 2 got %d", doc.Version)
	}
	if _, ok := doc.Body["newsletter"]; ok {
		t.Fatalf("set should replace the whole body, got %v", doc.Body)
	}
	if doc.Body["phone"] != "2" {
		t.Fatalf("phone want 2 got %v", doc.Body["phone"])
	}
}

func TestDocumentStoreUpdateMergesTopLevelFields(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	if _, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", models.JSON{"phone": "1", "display_name": "Ann"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	doc, err := store.UpdateDocument(ctx, constants.CollectionUsers, "u1", models.JSON{"phone": "555-1234"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if doc.Body["phone"] != "555-1234" || doc.Body["display_name"] != "Ann" {
		t.Fatalf("unexpected merged body: %v", doc.Body)
	}

	if _, err := store.UpdateDocument(ctx, constants.CollectionUsers, "missing", models.JSON{"x": 1}); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("update missing want ErrDocumentNotFound got %v", err)
	}
}

func TestDocumentStoreCompareAndSetRejectsStaleVersion(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	id, err := store.CreateDocument(ctx, constants.CollectionOrders, models.JSON{"status": "pending"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.CompareAndSet(ctx, constants.CollectionOrders, id, 1, models.JSON{"status": "processing"}); err != nil {
		t.Fatalf("first cas failed: %v", err)
	}
	if _, err := store.CompareAndSet(ctx, constants.CollectionOrders, id, 1, models.JSON{"status": "cancelled"}); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale cas want ErrVersionConflict got %v", err)
	}
	doc, err := store.GetDocument(ctx, constants.CollectionOrders, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.Body["status"] != "processing" {
		t.Fatalf("status want processing got %v", doc.Body["status"])
	}
}

func TestDocumentStoreQueryFiltersAndOrders(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	for i, owner := range []string{"u1", "u2", "u1"} {
		body := models.JSON{
			"user_id":          owner,
			"status":           "pending",
			"shipping_address": map[string]interface{}{"full_name": fmt.Sprintf("Buyer %d", i)},
		}
		if _, err := store.CreateDocument(ctx, constants.CollectionOrders, body); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	docs, err := store.QueryDocuments(ctx, constants.CollectionOrders, DocumentQuery{
		Filters:    []Filter{{Field: "user_id", Op: OpEq, Value: "u1"}},
		OrderBy:    FieldCreatedAt,
		Descending: true,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 docs got %d", len(docs))
	}
	if !docs[0].CreatedAt.After(docs[1].CreatedAt) {
		t.Fatalf("docs should be newest first")
	}

	total, err := store.CountDocuments(ctx, constants.CollectionOrders, DocumentQuery{
		Keyword: &KeywordFilter{Fields: []string{"shipping_address.full_name"}, Keyword: "buyer 1"},
	})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("keyword count want 1 got %d", total)
	}
}

func TestProfileRepositoryQuarantinesInvalidCartLines(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()
	repo := NewProfileRepository(store)

	body := models.JSON{
		"uid": "u1",
		"cart": []interface{}{
			map[string]interface{}{"product_id": "1", "unit_price": "10.00", "quantity": 2},
			map[string]interface{}{"product_id": "2", "unit_price": "10.00", "quantity": 0},
			map[string]interface{}{"product_id": "", "unit_price": "10.00", "quantity": 1},
		},
	}
	if _, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", body); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	profile, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(profile.Cart) != 1 || profile.Cart[0].ProductID != "1" {
		t.Fatalf("expected only the valid line, got %+v", profile.Cart)
	}
	if profile.Role != constants.RoleCustomer {
		t.Fatalf("missing role should default to customer, got %s", profile.Role)
	}
}

func TestProfileRepositoryIsolatesUndecodableCartLines(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()
	repo := NewProfileRepository(store)

	body := models.JSON{
		"uid": "u1",
		"cart": []interface{}{
			map[string]interface{}{"product_id": "1", "unit_price": "10.00", "quantity": 2},
			map[string]interface{}{"product_id": "2", "unit_price": "10.00", "quantity": json.Number("9223372036854775807")},
			map[string]interface{}{"product_id": "3", "unit_price": "10.00", "quantity": json.Number("1e30")},
			map[string]interface{}{"product_id": "4", "unit_price": "10.00", "quantity": "many"},
		},
	}
	if _, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", body); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	profile, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("a bad cart line must not fail the whole profile: %v", err)
	}
	if len(profile.Cart) != 1 || profile.Cart[0].ProductID != "1" || profile.Cart[0].Quantity != 2 {
		t.Fatalf("expected only the valid line, got %+v", profile.Cart)
	}
}

func TestProfileRepositoryMergesDuplicateCartLines(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()
	repo := NewProfileRepository(store)

	body := models.JSON{
		"uid": "u1",
		"cart": []interface{}{
			map[string]interface{}{"product_id": "7", "unit_price": "5.00", "quantity": 2, "options": map[string]interface{}{"size": "M", "color": "red"}},
			map[string]interface{}{"product_id": "8", "unit_price": "1.00", "quantity": 1},
			map[string]interface{}{"product_id": "7", "unit_price": "5.00", "quantity": 3, "options": map[string]interface{}{"color": "red", "size": "M"}},
			map[string]interface{}{"product_id": "8", "unit_price": "1.00", "quantity": models.MaxLineQuantity},
		},
	}
	if _, err := store.SetDocument(ctx, constants.CollectionUsers, "u1", body); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	profile, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(profile.Cart) != 2 {
		t.Fatalf("duplicate keys should merge into one line each, got %+v", profile.Cart)
	}
	if profile.Cart[0].ProductID != "7" || profile.Cart[0].Quantity != 5 {
		t.Fatalf("first line want 7 x5, got %+v", profile.Cart[0])
	}
	if profile.Cart[1].ProductID != "8" || profile.Cart[1].Quantity != models.MaxLineQuantity {
		t.Fatalf("merged quantity should stay within the line limit, got %+v", profile.Cart[1])
	}
}

func TestDocumentStorePreservesLargeIntegers(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	encoded, err := models.EncodeJSON(map[string]int64{"big": 9007199254740993})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := store.SetDocument(ctx, constants.CollectionOrders, "o1", encoded); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	doc, err := store.GetDocument(ctx, constants.CollectionOrders, "o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var decoded struct {
		Big int64 `json:"big"`
	}
	if err := models.DecodeJSON(doc.Body, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Big != 9007199254740993 {
		t.Fatalf("integer should round trip exactly, got %d", decoded.Big)
	}
}

func TestDocumentStoreDelete(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()

	id, err := store.CreateDocument(ctx, constants.CollectionOrders, models.JSON{"status": "pending"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.DeleteDocument(ctx, constants.CollectionOrders, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	doc, err := store.GetDocument(ctx, constants.CollectionOrders, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc != nil {
		t.Fatalf("deleted document should be gone, got %+v", doc)
	}
	if err := store.DeleteDocument(ctx, constants.CollectionOrders, id); err != nil {
		t.Fatalf("deleting a missing document should not fail: %v", err)
	}
}

func TestProfileRepositoryAppendOrderIsIdempotent(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()
	repo := NewProfileRepository(store)

	if err := repo.Create(ctx, &models.Profile{UID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.AppendOrder(ctx, "u1", "order-1"); err != nil {
			t.Fatalf("append order failed: %v", err)
		}
	}
	profile, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(profile.Orders) != 1 || profile.Orders[0] != "order-1" {
		t.Fatalf("unexpected order history: %v", profile.Orders)
	}
}

func TestOrderRepositoryRejectsUnknownStatus(t *testing.T) {
	store := setupDocumentStoreTest(t)
	ctx := context.Background()
	repo := NewOrderRepository(store)

	id, err := store.CreateDocument(ctx, constants.CollectionOrders, models.JSON{"user_id": "u1", "status": "teleported"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("want ErrMalformedDocument got %v", err)
	}
	orders, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("malformed order should be skipped, got %d", len(orders))
	}
}
