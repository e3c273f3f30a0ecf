package models

// MoveType classifies accounting moves the way the ledger consumes them.
type MoveType string

const (
	MoveTypeOutInvoice MoveType = "out_invoice"
	MoveTypeOutPayment MoveType = "out_payment"
	MoveTypeEntry      MoveType = "entry"
)

type MoveState string

const (
	MoveStateDraft  MoveState = "draft"
	MoveStatePosted MoveState = "posted"
)

type PaymentState string

const (
	PaymentStateNotPaid PaymentState = "not_paid"
	PaymentStatePartial PaymentState = "partial"
	PaymentStatePaid    PaymentState = "paid"
)

type PosOrderState string

const (
	PosOrderStateDraft  PosOrderState = "draft"
	PosOrderStatePaid   PosOrderState = "paid"
	PosOrderStateDone   PosOrderState = "done"
	PosOrderStateCancel PosOrderState = "cancel"
)

type PosSessionState string

const (
	PosSessionStateOpen   PosSessionState = "open"
	PosSessionStateClosed PosSessionState = "closed"
)

// NcfType is the DGII receipt type: "01" for customers with a tax id (RNC),
// "02" for generic consumers.
type NcfType string

const (
	NcfTypeFiscalCredit NcfType = "01"
	NcfTypeConsumer     NcfType = "02"
)

// Prefix returns the printed series prefix, e.g. "B01".
func (t NcfType) Prefix() string {
	return "B" + string(t)
}

// NcfTypeForCustomer picks the receipt type from the customer's tax id.
// A nil customer is a walk-in consumer.
func NcfTypeForCustomer(customer *Customer) NcfType {
	if customer != nil && customer.Vat != "" {
		return NcfTypeFiscalCredit
	}
	return NcfTypeConsumer
}

type AccountType string

const (
	AccountTypeReceivable AccountType = "asset_receivable"
	AccountTypeIncome     AccountType = "income"
	AccountTypeTax        AccountType = "tax"
	AccountTypeCash       AccountType = "cash"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleCashier UserRole = "C"
)
