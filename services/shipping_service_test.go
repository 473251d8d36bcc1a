package services_test

import (
	"errors"
	"testing"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/services"
	"fulfillment-app/testutil"
)

// driveToShipping takes a freshly created order through submit, verify
// and start.
func driveToShipping(t *testing.T, fx *testutil.Fixture, picking *services.PickingService, shipping *services.ShippingService, orderID uint) {
	t.Helper()
	if err := picking.Submit(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := shipping.Verify(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := shipping.Start(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestCompleteShipsFullPick(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 15)

	orders, picking := newOrders(db)
	shipping := services.NewShippingService(db, nil)

	result, err := orders.Create(fx.Company.ID, fx.User.ID, &services.CreateOrderInput{
		CustomerID: fx.Customer.ID,
		Lines:      []services.CreateOrderLineInput{{ItemID: item.ID, RequestedQty: 10}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	orderID := result.Order.ID
	lineID := result.Order.Lines[0].ID

	driveToShipping(t, fx, picking, shipping, orderID)

	if err := shipping.Complete(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got := reloadOrder(t, db, orderID)
	if got.Status != models.OrderStatusDelivered {
		t.Errorf("status = %s, want DELIVERED", got.Status)
	}
	if got.DeliveredAt == nil {
		t.Error("delivery stamp not set")
	}
	if line := reloadLine(t, db, lineID); line.ShippedQty != 10 {
		t.Errorf("shippedQty = %d, want 10", line.ShippedQty)
	}

	s := testutil.ReloadStock(t, db, stock.ID)
	if s.OnHand != 5 || s.Reserved != 0 {
		t.Errorf("stock = %d/%d onHand/reserved, want 5/0", s.OnHand, s.Reserved)
	}
	if n := countAudit(t, db, fx.Company.ID, models.TxTypeOutboundConfirm); n != 1 {
		t.Errorf("outbound confirm audit entries = %d, want 1", n)
	}
}

func TestCompleteReturnsUnpickedRemainder(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	orders, picking := newOrders(db)
	shipping := services.NewShippingService(db, nil)

	result, err := orders.Create(fx.Company.ID, fx.User.ID, &services.CreateOrderInput{
		CustomerID: fx.Customer.ID,
		Lines:      []services.CreateOrderLineInput{{ItemID: item.ID, RequestedQty: 10}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	orderID := result.Order.ID
	lineID := result.Order.Lines[0].ID

	// only 6 of the 10 reserved units were physically picked
	allocID := activeAllocations(t, db, lineID)[0].ID
	if err := picking.RecordPickedQty(fx.Company.ID, fx.User.ID, orderID, allocID, 6); err != nil {
		t.Fatalf("record pick: %v", err)
	}

	driveToShipping(t, fx, picking, shipping, orderID)

	if err := shipping.Complete(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// reserved drops by the full 10, on-hand only by the 6 shipped
	s := testutil.ReloadStock(t, db, stock.ID)
	if s.OnHand != 14 || s.Reserved != 0 {
		t.Errorf("stock = %d/%d onHand/reserved, want 14/0", s.OnHand, s.Reserved)
	}
	if line := reloadLine(t, db, lineID); line.ShippedQty != 6 {
		t.Errorf("shippedQty = %d, want 6", line.ShippedQty)
	}
}

func TestCompleteOnlyFromShipping(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	orders, _ := newOrders(db)
	shipping := services.NewShippingService(db, nil)

	result, err := orders.Create(fx.Company.ID, fx.User.ID, &services.CreateOrderInput{
		CustomerID: fx.Customer.ID,
		Lines:      []services.CreateOrderLineInput{{ItemID: item.ID, RequestedQty: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = shipping.Complete(fx.Company.ID, fx.User.ID, result.Order.ID)
	var invalid *apperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidStateError", err)
	}

	// no ledger mutation on the failed attempt
	s := testutil.ReloadStock(t, db, stock.ID)
	if s.OnHand != 20 || s.Reserved != 5 {
		t.Errorf("stock = %d/%d onHand/reserved, want untouched 20/5", s.OnHand, s.Reserved)
	}
}

func TestCompleteSkipsCancelledLines(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	other := fx.NewItem(t, db, "SKU-2")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	lotOther := fx.NewLot(t, db, other.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)
	stockOther := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lotOther.ID, 20)

	orders, picking := newOrders(db)
	shipping := services.NewShippingService(db, nil)

	result, err := orders.Create(fx.Company.ID, fx.User.ID, &services.CreateOrderInput{
		CustomerID: fx.Customer.ID,
		Lines: []services.CreateOrderLineInput{
			{ItemID: item.ID, RequestedQty: 5},
			{ItemID: other.ID, RequestedQty: 4},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	orderID := result.Order.ID
	cancelledLineID := result.Order.Lines[1].ID

	if err := orders.CancelLine(fx.Company.ID, fx.User.ID, orderID, cancelledLineID); err != nil {
		t.Fatalf("cancel line: %v", err)
	}

	driveToShipping(t, fx, picking, shipping, orderID)
	if err := shipping.Complete(fx.Company.ID, fx.User.ID, orderID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if s := testutil.ReloadStock(t, db, stock.ID); s.OnHand != 15 {
		t.Errorf("live line stock onHand = %d, want 15", s.OnHand)
	}
	if s := testutil.ReloadStock(t, db, stockOther.ID); s.OnHand != 20 || s.Reserved != 0 {
		t.Errorf("cancelled line stock = %d/%d, want untouched 20/0", s.OnHand, s.Reserved)
	}
	if line := reloadLine(t, db, cancelledLineID); line.ShippedQty != 0 {
		t.Errorf("cancelled line shippedQty = %d, want 0", line.ShippedQty)
	}
}

func TestNoAllocationEndsBothReleasedAndCommitted(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	orders, picking := newOrders(db)
	shipping := services.NewShippingService(db, nil)

	result, err := orders.Create(fx.Company.ID, fx.User.ID, &services.CreateOrderInput{
		CustomerID: fx.Customer.ID,
		Lines:      []services.CreateOrderLineInput{{ItemID: item.ID, RequestedQty: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	driveToShipping(t, fx, picking, shipping, result.Order.ID)
	if err := shipping.Complete(fx.Company.ID, fx.User.ID, result.Order.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	var count int64
	err = db.Model(&models.PickAllocation{}).
		Where("is_released = ? AND is_committed = ?", true, true).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("%d allocations both released and committed, want 0", count)
	}
}

func TestVerifyAndStartStatusGuards(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	shipping := services.NewShippingService(db, nil)

	var invalid *apperr.InvalidStateError
	if err := shipping.Verify(fx.Company.ID, fx.User.ID, order.ID); !errors.As(err, &invalid) {
		t.Errorf("verify from DRAFT: got %v, want InvalidStateError", err)
	}
	if err := shipping.Start(fx.Company.ID, fx.User.ID, order.ID); !errors.As(err, &invalid) {
		t.Errorf("start from DRAFT: got %v, want InvalidStateError", err)
	}
}
