package payment

// CheckoutItem is one priced line sent to the payment provider. Unit
// amounts are in the currency's minor unit.
type CheckoutItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSessionParams struct {
	OrderID       string
	Reference     string
	CustomerEmail string
	Currency      string
	Items         []CheckoutItem
	SuccessURL    string
	CancelURL     string
}

type CheckoutSessionResult struct {
	SessionID string
	URL       string
}
