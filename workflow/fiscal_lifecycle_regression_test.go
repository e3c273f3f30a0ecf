package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/models"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fiscal lifecycle regression harness.
//
// Guards the two invariants the DB-free tests cannot reach:
// - one invoice per sale, ever (materializer idempotence under re-invocation)
// - a reconciled line is never part of a second reconcile group
//
// Usage (requires MySQL reachable via DB_* env vars):
//   INTEGRATION_TESTS=1 go test ./workflow -run FiscalLifecycle -v

func fiscalLifecycleDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires MySQL)")
	}
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatal("database not initialized; set DB_* env vars")
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedFiscalCompany(t *testing.T, db *gorm.DB, tag string) (*models.Company, *models.PosSession) {
	t.Helper()
	company := models.Company{
		Name:            "Colmado Regresión " + tag,
		Vat:             "131000000",
		Timezone:        "America/Santo_Domingo",
		NcfLowThreshold: 5,
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatal(err)
	}
	walkIn := models.Customer{
		CompanyId: company.ID,
		Name:      models.WalkInCustomerName,
		IsActive:  utils.NewTrue(),
	}
	if err := db.Create(&walkIn).Error; err != nil {
		t.Fatal(err)
	}
	ncfRange := models.NcfRange{
		CompanyId:        company.ID,
		NcfType:          models.NcfTypeConsumer,
		Active:           utils.NewTrue(),
		NextNumber:       1,
		EndNumber:        1000,
		AvailableNumbers: 1000,
	}
	if err := db.Create(&ncfRange).Error; err != nil {
		t.Fatal(err)
	}
	session := models.PosSession{
		CompanyId: company.ID,
		UserId:    1,
		Name:      "POS/SESSION/" + tag,
		State:     models.PosSessionStateOpen,
		OpenedAt:  time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatal(err)
	}
	return &company, &session
}

func seedPaidOrder(t *testing.T, db *gorm.DB, company *models.Company, session *models.PosSession, number string, total string) *models.PosOrder {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := models.PosOrder{
		CompanyId:   company.ID,
		SessionId:   session.ID,
		UserId:      1,
		OrderNumber: number,
		State:       models.PosOrderStatePaid,
		DateOrder:   time.Now(),
		AmountTotal: amount,
		Lines: []models.PosOrderLine{
			{ProductName: "Articulo", Qty: decimal.NewFromInt(1), PriceUnit: amount},
		},
		Payments: []models.PosPayment{
			{MethodName: "Efectivo", Amount: amount},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}
	return &order
}

func TestFiscalLifecycle_MaterializerIdempotence(t *testing.T) {
	db := fiscalLifecycleDB(t)
	logger := config.GetLogger()
	tag := fmt.Sprintf("IDEM-%d", time.Now().UnixNano())
	company, session := seedFiscalCompany(t, db, tag)
	order := seedPaidOrder(t, db, company, session, "POS-"+tag, "120.00")

	var first, second *models.AccountMove
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = CreateFiscalInvoiceFromOrder(tx, logger, DefaultNumberAssigner, order)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = CreateFiscalInvoiceFromOrder(tx, logger, DefaultNumberAssigner, order)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("second invocation produced a second invoice: %d vs %d", second.ID, first.ID)
	}

	var invoiceCount int64
	err = db.Model(&models.AccountMove{}).
		Where("company_id = ? AND move_type = ? AND invoice_origin = ?",
			company.ID, models.MoveTypeOutInvoice, order.OrderNumber).
		Count(&invoiceCount).Error
	if err != nil {
		t.Fatal(err)
	}
	if invoiceCount != 1 {
		t.Fatalf("want exactly one invoice for the sale, got %d", invoiceCount)
	}

	// the sweep must also skip it
	fresh, err := models.GetUninvoicedPaidOrders(db, company.ID, config.FiscalInvoiceBatchLimit)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range fresh {
		if o.ID == order.ID {
			t.Fatal("invoiced order still shows up as uninvoiced")
		}
	}
}

func TestFiscalLifecycle_NoDoubleReconciliation(t *testing.T) {
	db := fiscalLifecycleDB(t)
	logger := config.GetLogger()
	tag := fmt.Sprintf("RECON-%d", time.Now().UnixNano())
	company, session := seedFiscalCompany(t, db, tag)
	orderA := seedPaidOrder(t, db, company, session, "POS-A-"+tag, "120.00")
	orderB := seedPaidOrder(t, db, company, session, "POS-B-"+tag, "80.00")

	if _, err := ProcessFiscalInvoiceSweep(db, logger, company.ID); err != nil {
		t.Fatal(err)
	}
	if err := ProcessSessionCloseWorkflow(db, logger, session.ID); err != nil {
		t.Fatal(err)
	}

	// both invoices of the session must have cleared against their own lines
	for _, order := range []*models.PosOrder{orderA, orderB} {
		invoice, err := models.GetInvoiceByOrigin(db, company.ID, order.OrderNumber)
		if err != nil {
			t.Fatal(err)
		}
		if invoice == nil {
			t.Fatalf("order %s was never invoiced", order.OrderNumber)
		}
		open, err := models.GetUnreconciledReceivableLines(db, invoice.ID, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(open) != 0 {
			t.Errorf("invoice for %s still has %d open receivable lines", order.OrderNumber, len(open))
		}
	}

	// a line that is already reconciled must never join a second group
	var reconciledLine models.AccountMoveLine
	err := db.Where("company_id = ? AND account_type = ? AND reconciled = true",
		company.ID, models.AccountTypeReceivable).
		First(&reconciledLine).Error
	if err != nil {
		t.Fatal(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return reconcileLines(tx, []models.AccountMoveLine{reconciledLine})
	})
	if err != errLineAlreadyReconciled {
		t.Fatalf("re-reconciling a cleared line must fail the group, got %v", err)
	}

	var again models.AccountMoveLine
	if err := db.First(&again, reconciledLine.ID).Error; err != nil {
		t.Fatal(err)
	}
	if again.MatchNumber != reconciledLine.MatchNumber {
		t.Error("failed group must not rewrite the line's match number")
	}
}

func TestFiscalLifecycle_MarkPrintedAckRetries(t *testing.T) {
	db := fiscalLifecycleDB(t)
	logger := config.GetLogger()
	tag := fmt.Sprintf("ACK-%d", time.Now().UnixNano())
	company, session := seedFiscalCompany(t, db, tag)
	order := seedPaidOrder(t, db, company, session, "POS-"+tag, "60.00")

	var invoice *models.AccountMove
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		invoice, err = CreateFiscalInvoiceFromOrder(tx, logger, DefaultNumberAssigner, order)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := models.MarkFiscalPrinted(ctx, invoice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("ack %d reported not found for an existing invoice", i+1)
		}
	}

	ok, err := models.MarkFiscalPrinted(ctx, 999999999)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown id must be a quiet no-op")
	}
}
