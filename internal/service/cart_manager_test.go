package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lumenshop/storefront/internal/models"

	"golang.org/x/sync/errgroup"
)

func TestCartAddLineMergesSameProductAndOptions(t *testing.T) {
	env := setupServiceTest(t)
	session := env.register(t, "merge@example.com")
	cart := env.factory.Cart(session)
	ctx := context.Background()
	product := testProduct("shirt", "20.00")

	if _, err := cart.AddLine(ctx, product, 1, map[string]string{"size": "M", "color": "red"}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	state, err := cart.AddLine(ctx, product, 2, map[string]string{"color": "red", "size": "M"})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(state.Lines) != 1 || state.Lines[0].Quantity != 3 {
		t.Fatalf("expected one merged line with quantity 3, got %+v", state.Lines)
	}

	state, err = cart.AddLine(ctx, product, 1, map[string]string{"size": "L", "color": "red"})
	if err != nil {
		t.Fatalf("third add failed: %v", err)
	}
	if len(state.Lines) != 2 {
		t.Fatalf("different options should create a new line, got %d lines", len(state.Lines))
	}
	if state.Totals.LineCount != 4 || state.Warning != nil {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestCartAddLineSnapshotsProductFields(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(env.register(t, "snapshot@example.com"))
	product := testProduct("mug", "8.00")
	if _, err := cart.AddLine(context.Background(), product, 1, nil); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	product.Price = models.MustMoney("99.00")
	product.Name = "Renamed"
	lines := cart.Lines()
	if lines[0].UnitPrice.String() != "8.00" || lines[0].Name != "Product mug" {
		t.Fatalf("line should keep snapshot fields, got %+v", lines[0])
	}
}

func TestCartQuantityFloorRemovesLine(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(env.register(t, "floor@example.com"))
	ctx := context.Background()
	options := map[string]string{"size": "S"}
	if _, err := cart.AddLine(ctx, testProduct("hat", "15.00"), 2, options); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	for _, quantity := range []int{0, -3} {
		if _, err := cart.AddLine(ctx, testProduct("hat", "15.00"), 1, options); err != nil {
			t.Fatalf("re-add failed: %v", err)
		}
		state, err := cart.SetQuantity(ctx, "hat", options, quantity)
		if err != nil {
			t.Fatalf("set quantity %d failed: %v", quantity, err)
		}
		if len(state.Lines) != 0 {
			t.Fatalf("quantity %d should remove the line, got %+v", quantity, state.Lines)
		}
	}
	if _, err := cart.AddLine(ctx, testProduct("hat", "15.00"), 0, options); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity add should fail, got %v", err)
	}
}

func TestCartQuantityUpperBound(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(env.register(t, "bound@example.com"))
	ctx := context.Background()
	product := testProduct("pen", "1.00")

	if _, err := cart.AddLine(ctx, product, math.MaxInt, nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("oversized add should fail, got %v", err)
	}
	if len(cart.Lines()) != 0 {
		t.Fatalf("rejected add must not touch the cart, got %+v", cart.Lines())
	}
	if _, err := cart.AddLine(ctx, product, models.MaxLineQuantity, nil); err != nil {
		t.Fatalf("add at the limit failed: %v", err)
	}
	if _, err := cart.AddLine(ctx, product, 1, nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("merge past the limit should fail, got %v", err)
	}
	if cart.LineCount() != models.MaxLineQuantity {
		t.Fatalf("line count want %d, got %d", models.MaxLineQuantity, cart.LineCount())
	}
	if cart.Subtotal().String() != "9999.00" {
		t.Fatalf("subtotal want 9999.00, got %s", cart.Subtotal())
	}
	for _, quantity := range []int{models.MaxLineQuantity + 1, math.MaxInt} {
		if _, err := cart.SetQuantity(ctx, "pen", nil, quantity); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("set quantity %d should fail, got %v", quantity, err)
		}
	}
	if lines := cart.Lines(); len(lines) != 1 || lines[0].Quantity != models.MaxLineQuantity {
		t.Fatalf("line should be unchanged, got %+v", lines)
	}
}

func TestCartRemoveAbsentLineIsNoop(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(env.register(t, "noop@example.com"))
	before := env.profiles.updates.Load()
	state, err := cart.RemoveLine(context.Background(), "ghost", nil)
	if err != nil {
		t.Fatalf("remove absent failed: %v", err)
	}
	if len(state.Lines) != 0 {
		t.Fatalf("unexpected lines: %+v", state.Lines)
	}
	if env.profiles.updates.Load() != before {
		t.Fatalf("absent remove should not write the mirror")
	}
}

func TestCartRequiresIdentity(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(NewAnonymousSession())
	if _, err := cart.AddLine(context.Background(), testProduct("a", "1.00"), 1, nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if _, err := cart.ToggleWishlist(context.Background(), testProduct("a", "1.00")); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated for wishlist, got %v", err)
	}
}

func TestCartMirrorFailureKeepsMemoryAndWarns(t *testing.T) {
	env := setupServiceTest(t)
	session := env.register(t, "mirror@example.com")
	cart := env.factory.Cart(session)
	ctx := context.Background()

	env.profiles.failUpdates.Store(true)
	state, err := cart.AddLine(ctx, testProduct("lamp", "30.00"), 1, nil)
	if err != nil {
		t.Fatalf("add should succeed despite mirror failure: %v", err)
	}
	if state.Warning == nil || !errors.Is(state.Warning, errStoreDown) {
		t.Fatalf("expected mirror warning, got %+v", state.Warning)
	}
	if cart.LineCount() != 1 {
		t.Fatalf("memory should keep the line, got %d", cart.LineCount())
	}
	stored, err := env.profiles.Get(ctx, session.UID())
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(stored.Cart) != 0 {
		t.Fatalf("mirror should not contain the line yet, got %+v", stored.Cart)
	}

	env.profiles.failUpdates.Store(false)
	if _, err := cart.AddLine(ctx, testProduct("lamp", "30.00"), 1, nil); err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	stored, err = env.profiles.Get(ctx, session.UID())
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if len(stored.Cart) != 1 || stored.Cart[0].Quantity != 2 {
		t.Fatalf("mirror should catch up with latest state, got %+v", stored.Cart)
	}
}

func TestCartConcurrentAddsApplyAll(t *testing.T) {
	env := setupServiceTest(t)
	session := env.register(t, "concurrent@example.com")
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			cart := env.factory.Cart(session)
			_, err := cart.AddLine(ctx, testProduct(fmt.Sprintf("p-%d", i%4), "5.00"), 1, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent add failed: %v", err)
	}

	cart := env.factory.Cart(session)
	if cart.LineCount() != 20 || len(cart.Lines()) != 4 {
		t.Fatalf("expected 4 lines totalling 20, got %d lines / %d items", len(cart.Lines()), cart.LineCount())
	}
	stored, err := env.profiles.Get(ctx, session.UID())
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if LineCount(stored.Cart) != 20 {
		t.Fatalf("mirror should hold the final state, got %d items", LineCount(stored.Cart))
	}
}

func TestWishlistToggleAndMoveToCart(t *testing.T) {
	env := setupServiceTest(t)
	cart := env.factory.Cart(env.register(t, "wish@example.com"))
	ctx := context.Background()
	product := testProduct("vase", "12.00")

	state, err := cart.ToggleWishlist(ctx, product)
	if err != nil || !state.InWishlist || len(state.Items) != 1 {
		t.Fatalf("toggle on failed: %+v, %v", state, err)
	}
	state, err = cart.ToggleWishlist(ctx, product)
	if err != nil || state.InWishlist || len(state.Items) != 0 {
		t.Fatalf("toggle off failed: %+v, %v", state, err)
	}

	if _, err := cart.ToggleWishlist(ctx, product); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	moved, err := cart.MoveToCart(ctx, "vase", nil)
	if err != nil {
		t.Fatalf("move to cart failed: %v", err)
	}
	if len(moved.Lines) != 1 || moved.Lines[0].Quantity != 1 || cart.InWishlist("vase") {
		t.Fatalf("unexpected move result: %+v", moved)
	}
	if _, err := cart.MoveToCart(ctx, "vase", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("moving an absent item should be not found, got %v", err)
	}
}
