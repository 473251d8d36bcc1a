package services_test

import (
	"errors"
	"testing"

	"fulfillment-app/apperr"
	"fulfillment-app/models"
	"fulfillment-app/services"
	"fulfillment-app/testutil"

	"gorm.io/gorm"
)

func newPicking(db *gorm.DB) *services.PickingService {
	return services.NewPickingService(db, services.NewAllocatorService(db))
}

func TestReserveForOrderMovesToPicking(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 8})

	picking := newPicking(db)
	result, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if len(result.ShortageByLine) != 0 {
		t.Fatalf("shortage = %v, want none", result.ShortageByLine)
	}

	got := reloadOrder(t, db, order.ID)
	if got.Status != models.OrderStatusPicking {
		t.Errorf("status = %s, want PICKING", got.Status)
	}
	if got.ReservedAt == nil || got.ReservedByUserID == nil {
		t.Error("reservation stamp not set")
	}
	if s := testutil.ReloadStock(t, db, stock.ID); s.Reserved != 8 {
		t.Errorf("reserved = %d, want 8", s.Reserved)
	}
	if n := countAudit(t, db, fx.Company.ID, models.TxTypePickReserve); n != 1 {
		t.Errorf("reserve audit entries = %d, want 1", n)
	}
}

func TestReserveForOrderRejectsWrongStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	order := newOrder(t, db, fx, models.OrderStatusShipping, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	_, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false)

	var invalid *apperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidStateError", err)
	}
}

func TestReserveForOrderAlreadyReserved(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	_, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false)
	if !errors.Is(err, apperr.ErrAlreadyReserved) {
		t.Fatalf("got %v, want ErrAlreadyReserved", err)
	}
}

func TestForceReReserveReleasesFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, true); err != nil {
		t.Fatalf("forced re-reserve: %v", err)
	}

	// the forced pass must not double-reserve
	if s := testutil.ReloadStock(t, db, stock.ID); s.Reserved != 5 {
		t.Fatalf("reserved = %d after re-reserve, want 5", s.Reserved)
	}

	lineID := reloadOrder(t, db, order.ID).Lines[0].ID
	active := activeAllocations(t, db, lineID)
	if len(active) != 1 || active[0].Qty != 5 {
		t.Fatalf("active allocations = %+v, want one of 5", active)
	}
	if n := countAudit(t, db, fx.Company.ID, models.TxTypePickRelease); n != 1 {
		t.Errorf("release audit entries = %d, want 1", n)
	}
}

func TestReleaseQtyForLineIsLifo(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lotE1 := fx.NewLot(t, db, item.ID, testutil.Days(5))
	lotE2 := fx.NewLot(t, db, item.ID, testutil.Days(30))

	dry := fx.Warehouses["DRY"].ID
	stockE1 := fx.NewStock(t, db, dry, lotE1.ID, 6)
	stockE2 := fx.NewStock(t, db, dry, lotE2.ID, 10)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 10})

	// 6 from the earliest lot, 4 from the later one (created second)
	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := picking.ReleaseQtyForLineTx(tx, fx.Company.ID, lineID, 6)
		return txErr
	})
	if err != nil {
		t.Fatalf("release 6: %v", err)
	}

	// LIFO: the 4-unit allocation on lotE2 goes entirely, then 2 of lotE1
	if s := testutil.ReloadStock(t, db, stockE2.ID); s.Reserved != 0 {
		t.Errorf("later lot reserved = %d, want 0", s.Reserved)
	}
	if s := testutil.ReloadStock(t, db, stockE1.ID); s.Reserved != 4 {
		t.Errorf("earliest lot reserved = %d, want 4", s.Reserved)
	}

	active := activeAllocations(t, db, lineID)
	if len(active) != 1 || active[0].Qty != 4 || active[0].LotID != lotE1.ID {
		t.Fatalf("active allocations = %+v, want one of 4 on lot %d", active, lotE1.ID)
	}
}

func TestReleaseRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 12)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 7})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := picking.ReleaseQtyForLineTx(tx, fx.Company.ID, lineID, 7)
		return txErr
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	got := testutil.ReloadStock(t, db, stock.ID)
	if got.Reserved != 0 || got.OnHand != 12 {
		t.Fatalf("after round trip: reserved=%d onHand=%d, want 0/12", got.Reserved, got.OnHand)
	}
	if active := activeAllocations(t, db, lineID); len(active) != 0 {
		t.Fatalf("active allocations = %+v, want none", active)
	}
}

func TestReleaseMoreThanReservedIsInconsistency(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 10)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 4})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := picking.ReleaseQtyForLineTx(tx, fx.Company.ID, lineID, 9)
		return txErr
	})
	var inconsistent *apperr.DataInconsistencyError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("got %v, want DataInconsistencyError", err)
	}
}

func TestSubmitWritesPickedQtyAndTransitions(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 10})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := picking.Submit(fx.Company.ID, fx.User.ID, order.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := reloadOrder(t, db, order.ID)
	if got.Status != models.OrderStatusPicked {
		t.Errorf("status = %s, want PICKED", got.Status)
	}
	if got.PickedSubmittedAt == nil {
		t.Error("submission stamp not set")
	}
	if got.Lines[0].PickedQty != 10 {
		t.Errorf("pickedQty = %d, want 10", got.Lines[0].PickedQty)
	}
}

func TestSubmitUsesRecordedPickedQty(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 10})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	lineID := reloadOrder(t, db, order.ID).Lines[0].ID
	allocID := activeAllocations(t, db, lineID)[0].ID

	// short pick: only 7 of the 10 reserved were physically picked
	if err := picking.RecordPickedQty(fx.Company.ID, fx.User.ID, order.ID, allocID, 7); err != nil {
		t.Fatalf("record pick: %v", err)
	}
	if err := picking.Submit(fx.Company.ID, fx.User.ID, order.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if line := reloadLine(t, db, lineID); line.PickedQty != 7 {
		t.Fatalf("pickedQty = %d, want recorded 7", line.PickedQty)
	}
}

func TestRecordPickedQtyOverReservedIsOverPick(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 20)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	lineID := reloadOrder(t, db, order.ID).Lines[0].ID
	allocID := activeAllocations(t, db, lineID)[0].ID

	err := picking.RecordPickedQty(fx.Company.ID, fx.User.ID, order.ID, allocID, 6)
	if !errors.Is(err, apperr.ErrOverPick) {
		t.Fatalf("got %v, want ErrOverPick", err)
	}
}

func TestSubmitRejectsOverPick(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 30)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	// a manual pick on top of the full reservation pushes the sum past requested
	if err := picking.ManualPick(fx.Company.ID, fx.User.ID, order.ID, lineID,
		fx.Warehouses["DRY"].ID, lot.ID, 3); err != nil {
		t.Fatalf("manual pick: %v", err)
	}

	err := picking.Submit(fx.Company.ID, fx.User.ID, order.ID)
	if !errors.Is(err, apperr.ErrOverPick) {
		t.Fatalf("got %v, want ErrOverPick", err)
	}

	if got := reloadOrder(t, db, order.ID); got.Status != models.OrderStatusPicking {
		t.Errorf("failed submit must not transition: status = %s", got.Status)
	}
}

func TestSubmitOnlyFromPicking(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 5})

	picking := newPicking(db)
	err := picking.Submit(fx.Company.ID, fx.User.ID, order.ID)

	var invalid *apperr.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidStateError", err)
	}
}

func TestManualPickStrictAvailability(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 3)

	order := newOrder(t, db, fx, models.OrderStatusPicking, lineSpec{ItemID: item.ID, RequestedQty: 10})
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	picking := newPicking(db)
	err := picking.ManualPick(fx.Company.ID, fx.User.ID, order.ID, lineID,
		fx.Warehouses["DRY"].ID, lot.ID, 5)
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	// no partial reservation applied
	if got := testutil.ReloadStock(t, db, stock.ID); got.Reserved != 0 {
		t.Fatalf("reserved = %d after failed manual pick, want 0", got.Reserved)
	}
	if active := activeAllocations(t, db, lineID); len(active) != 0 {
		t.Fatalf("allocations = %+v after failed manual pick, want none", active)
	}
}

func TestManualPickAfterSubmitRollsBackToPicking(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 30)

	order := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 10})

	picking := newPicking(db)
	if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, order.ID, false); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// release part of the reservation so the manual pick stays within requested
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID
	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := picking.ReleaseQtyForLineTx(tx, fx.Company.ID, lineID, 4)
		return txErr
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := picking.Submit(fx.Company.ID, fx.User.ID, order.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := picking.ManualPick(fx.Company.ID, fx.User.ID, order.ID, lineID,
		fx.Warehouses["DRY"].ID, lot.ID, 4); err != nil {
		t.Fatalf("manual pick: %v", err)
	}

	got := reloadOrder(t, db, order.ID)
	if got.Status != models.OrderStatusPicking {
		t.Errorf("status = %s, want rollback to PICKING", got.Status)
	}
	if got.PickedSubmittedAt != nil {
		t.Error("submission stamp must be cleared by the rollback")
	}
	if line := reloadLine(t, db, lineID); line.PickedQty != 0 {
		t.Errorf("pickedQty = %d, want reset to 0", line.PickedQty)
	}
}

func TestManualPickRejectsWrongLot(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	other := fx.NewItem(t, db, "SKU-2")
	otherLot := fx.NewLot(t, db, other.ID, testutil.Days(10))
	fx.NewStock(t, db, fx.Warehouses["DRY"].ID, otherLot.ID, 10)

	order := newOrder(t, db, fx, models.OrderStatusPicking, lineSpec{ItemID: item.ID, RequestedQty: 5})
	lineID := reloadOrder(t, db, order.ID).Lines[0].ID

	picking := newPicking(db)
	err := picking.ManualPick(fx.Company.ID, fx.User.ID, order.ID, lineID,
		fx.Warehouses["DRY"].ID, otherLot.ID, 2)
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
}

func TestConservationReservedMatchesAllocations(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)

	item := fx.NewItem(t, db, "SKU-1")
	lot := fx.NewLot(t, db, item.ID, testutil.Days(10))
	stock := fx.NewStock(t, db, fx.Warehouses["DRY"].ID, lot.ID, 50)

	orderA := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 12})
	orderB := newOrder(t, db, fx, models.OrderStatusDraft, lineSpec{ItemID: item.ID, RequestedQty: 9})

	picking := newPicking(db)
	for _, orderID := range []uint{orderA.ID, orderB.ID} {
		if _, err := picking.ReserveForOrder(fx.Company.ID, fx.User.ID, orderID, false); err != nil {
			t.Fatalf("reserve order %d: %v", orderID, err)
		}
	}

	var sum int
	err := db.Model(&models.PickAllocation{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("company_id = ? AND lot_id = ? AND is_released = ? AND is_committed = ?",
			fx.Company.ID, lot.ID, false, false).
		Scan(&sum).Error
	if err != nil {
		t.Fatalf("sum allocations: %v", err)
	}

	got := testutil.ReloadStock(t, db, stock.ID)
	if sum != got.Reserved {
		t.Fatalf("sum(active allocations) = %d, stock.reserved = %d, must match", sum, got.Reserved)
	}
}
