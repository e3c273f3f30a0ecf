package models

import (
	"context"
	"time"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PosOrder struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     int             `gorm:"index;not null" json:"company_id"`
	SessionId     int             `gorm:"index;not null" json:"session_id"`
	UserId        int             `gorm:"index;not null" json:"user_id"`
	CustomerId    int             `gorm:"index;default:0" json:"customer_id"`
	OrderNumber   string          `gorm:"size:255;uniqueIndex;not null" json:"order_number"`
	State         PosOrderState   `gorm:"type:enum('draft','paid','done','cancel');index;default:'draft'" json:"state"`
	DateOrder     time.Time       `json:"date_order"`
	AmountTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_total"`
	AccountMoveId int             `gorm:"index;default:0" json:"account_move_id"` // set once, never overwritten
	Lines         []PosOrderLine  `gorm:"foreignKey:PosOrderId" json:"lines"`
	Payments      []PosPayment    `gorm:"foreignKey:PosOrderId" json:"payments"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PosOrderLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PosOrderId  int             `gorm:"index;not null" json:"pos_order_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Qty         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	PriceUnit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_unit"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
}

// Subtotal is qty * unit price, tax excluded.
func (l *PosOrderLine) Subtotal() decimal.Decimal {
	return l.Qty.Mul(l.PriceUnit)
}

type PosPayment struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PosOrderId int             `gorm:"index;not null" json:"pos_order_id"`
	MethodName string          `gorm:"size:100;not null" json:"method_name"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
}

type NewPosOrder struct {
	SessionId   int               `json:"session_id" binding:"required"`
	CustomerId  int               `json:"customer_id"`
	OrderNumber string            `json:"order_number" binding:"required"`
	DateOrder   time.Time         `json:"date_order"`
	Lines       []NewPosOrderLine `json:"lines" binding:"required,dive"`
	Payments    []NewPosPayment   `json:"payments" binding:"dive"`
}

type NewPosOrderLine struct {
	ProductName string          `json:"product_name" binding:"required"`
	Qty         decimal.Decimal `json:"qty" binding:"required"`
	PriceUnit   decimal.Decimal `json:"price_unit"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

type NewPosPayment struct {
	MethodName string          `json:"method_name" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// CreatePosOrder persists a till order. An order with no customer defaults to
// the company's walk-in customer so downstream invoicing never sees a hole;
// when the walk-in record does not exist yet the order is stored without one
// and the materializer resolves it later.
func CreatePosOrder(ctx context.Context, input NewPosOrder) (*PosOrder, error) {
	companyId, _ := utils.GetCompanyIdFromContext(ctx)
	userId, _ := utils.GetUserIdFromContext(ctx)

	tx := config.GetDB().Begin()
	defer tx.Rollback()

	customerId := input.CustomerId
	if customerId == 0 {
		if walkIn, err := ResolveWalkInCustomer(tx, companyId); err == nil {
			customerId = walkIn.ID
		}
	}

	dateOrder := input.DateOrder
	if dateOrder.IsZero() {
		dateOrder = time.Now()
	}

	order := PosOrder{
		CompanyId:   companyId,
		SessionId:   input.SessionId,
		UserId:      userId,
		CustomerId:  customerId,
		OrderNumber: input.OrderNumber,
		DateOrder:   dateOrder,
	}
	total := decimal.Zero
	for _, l := range input.Lines {
		order.Lines = append(order.Lines, PosOrderLine{
			ProductName: l.ProductName,
			Qty:         l.Qty,
			PriceUnit:   l.PriceUnit,
			TaxAmount:   l.TaxAmount,
		})
		total = total.Add(l.Qty.Mul(l.PriceUnit)).Add(l.TaxAmount)
	}
	paid := decimal.Zero
	for _, p := range input.Payments {
		order.Payments = append(order.Payments, PosPayment{
			MethodName: p.MethodName,
			Amount:     p.Amount,
		})
		paid = paid.Add(p.Amount)
	}
	order.AmountTotal = total
	if paid.GreaterThanOrEqual(total) && total.IsPositive() {
		order.State = PosOrderStatePaid
	}

	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// AmountPaid sums the order's registered payments.
func (o *PosOrder) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

func GetPosOrder(tx *gorm.DB, id int, preload bool) (*PosOrder, error) {
	q := tx
	if preload {
		q = q.Preload("Lines").Preload("Payments")
	}
	var order PosOrder
	if err := q.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetUninvoicedPaidOrders returns the oldest paid orders that have no invoice
// yet, up to limit. Zero-total orders never qualify.
func GetUninvoicedPaidOrders(tx *gorm.DB, companyId int, limit int) ([]*PosOrder, error) {
	var orders []*PosOrder
	err := tx.Preload("Lines").Preload("Payments").
		Where("company_id = ? AND account_move_id = 0 AND state IN ? AND amount_total > 0",
			companyId, []PosOrderState{PosOrderStatePaid, PosOrderStateDone}).
		Order("date_order ASC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// GetOrdersByNumber looks up paid/done orders by the till reference. Used by
// the reconciler, which requires exactly one match.
func GetOrdersByNumber(tx *gorm.DB, companyId int, orderNumber string) ([]*PosOrder, error) {
	var orders []*PosOrder
	err := tx.Where("company_id = ? AND order_number = ? AND state IN ?",
		companyId, orderNumber, []PosOrderState{PosOrderStatePaid, PosOrderStateDone}).
		Find(&orders).Error
	return orders, err
}

// GetOrderByInvoice finds the order linked to an invoice.
func GetOrderByInvoice(tx *gorm.DB, moveId int) (*PosOrder, error) {
	var order PosOrder
	err := tx.Preload("Lines").Preload("Payments").
		Where("account_move_id = ?", moveId).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LinkInvoice stamps the invoice id on the order. The WHERE clause enforces
// set-once: a second link attempt affects zero rows and errors out.
func LinkInvoice(tx *gorm.DB, order *PosOrder, moveId int) error {
	result := tx.Model(&PosOrder{}).
		Where("id = ? AND account_move_id = 0", order.ID).
		Update("account_move_id", moveId)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return utils.ErrorAlreadyLinked
	}
	order.AccountMoveId = moveId
	return nil
}
