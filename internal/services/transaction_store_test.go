package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/hyperpay/internal/models"
	"github.com/example/hyperpay/internal/utils"
)

// Store tests run against a real Postgres instance; the locking behavior
// under test has no meaning on fakes. Set TEST_DATABASE_URL to enable them.
func storeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := db.AutoMigrate(&models.Transaction{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM transactions")
	})

	return db
}

func testStore(t *testing.T) *TransactionStore {
	return NewTransactionStore(storeTestDB(t), testResolver(t))
}

func storeClassification(id, checkoutID, entityID string) *Classification {
	return &Classification{
		Outcome:               OutcomePending,
		ResultCode:            "000.200.100",
		CheckoutID:            checkoutID,
		MerchantTransactionID: id,
		EntityID:              entityID,
		Amount:                decimal.NewFromFloat(100),
		Currency:              "SAR",
		Raw:                   json.RawMessage(`{"result":{"code":"000.200.100"}}`),
	}
}

func TestStoreCreateReplacesPending(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	payerID := uuid.New()

	first, err := store.Create(ctx, payerID, storeClassification("txn-a", "co-a", "entity-mada"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	second, err := store.Create(ctx, payerID, storeClassification("txn-b", "co-b", "entity-mada"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.FindByIDOrCheckoutID(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("prior pending transaction must be abandoned, got %v", err)
	}
	if _, err := store.FindByIDOrCheckoutID(ctx, second.ID); err != nil {
		t.Fatalf("replacement transaction missing: %v", err)
	}
	if second.Brand != string(BrandDomesticDebit) {
		t.Fatalf("brand = %q, want domestic-debit", second.Brand)
	}
}

func TestStoreCreateKeepsOtherBrandsPending(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	payerID := uuid.New()

	if _, err := store.Create(ctx, payerID, storeClassification("txn-mada", "co-1", "entity-mada"), nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, payerID, storeClassification("txn-card", "co-2", "entity-default"), nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	txns, total, err := store.ListByPayer(ctx, payerID, utils.Pagination{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(txns) != 2 {
		t.Fatalf("pending rows for distinct brands must coexist, got %d", total)
	}
}

func TestStoreFindByEitherID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, uuid.New(), storeClassification("txn-find", "co-find", "entity-default"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byID, err := store.FindByIDOrCheckoutID(ctx, "txn-find")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	byCheckout, err := store.FindByIDOrCheckoutID(ctx, "co-find")
	if err != nil {
		t.Fatalf("find by checkout id: %v", err)
	}
	if byID.ID != created.ID || byCheckout.ID != created.ID {
		t.Fatal("both keys must resolve the same transaction")
	}
}

func TestStoreResolveStatus(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	txn, err := store.Create(ctx, uuid.New(), storeClassification("txn-resolve", "co-resolve", "entity-default"), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pendingCls := storeClassification("txn-resolve", "co-resolve", "entity-default")
	if err := store.ResolveStatus(ctx, txn, pendingCls); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if txn.Status != StatusPending {
		t.Fatalf("pending classification must not transition, got %q", txn.Status)
	}

	successCls := storeClassification("txn-resolve", "co-resolve", "entity-default")
	successCls.Outcome = OutcomeSuccess
	if err := store.ResolveStatus(ctx, txn, successCls); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if txn.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", txn.Status)
	}

	// success is terminal, a later failed poll must not move it
	failedCls := storeClassification("txn-resolve", "co-resolve", "entity-default")
	failedCls.Outcome = OutcomeFailed
	if err := store.ResolveStatus(ctx, txn, failedCls); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if txn.Status != StatusSuccess {
		t.Fatalf("terminal status must be immutable, got %q", txn.Status)
	}
}

func TestStoreConcurrentCreateSinglePending(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	payerID := uuid.New()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cls := storeClassification(fmt.Sprintf("txn-race-%d", i), fmt.Sprintf("co-race-%d", i), "entity-mada")
			if _, err := store.Create(ctx, payerID, cls, nil); err != nil {
				t.Errorf("create %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	var pending int64
	if err := store.db.Model(&models.Transaction{}).
		Where("payer_id = ? AND brand = ? AND status = ?", payerID, string(BrandDomesticDebit), StatusPending).
		Count(&pending).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 1 {
		t.Fatalf("found %d pending rows for one (payer, brand), want exactly 1", pending)
	}
}
