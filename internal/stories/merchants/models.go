package merchants

// Credentials hold a merchant's YooKassa shop credentials together with the
// status check type stamped onto new orders. Managed by the back office;
// read-only for this service.
type Credentials struct {
	ID              int64
	MerchantID      string
	ShopID          string
	SecretKey       string
	StatusCheckType string // polling | webhook | none
}

type GetCriteria struct {
	MerchantID *string
}
