package pricing

import "fmt"

// Record is an immutable snapshot of one item's storefront price.
// Initial and Final are in the currency's minor units (cents for USD).
type Record struct {
	AppID            int    `json:"app_id"`
	Currency         string `json:"currency"`
	Initial          int    `json:"initial"`
	Final            int    `json:"final"`
	DiscountPercent  int    `json:"discount_percent"`
	InitialFormatted string `json:"initial_formatted"`
	FinalFormatted   string `json:"final_formatted"`
	IsFree           bool   `json:"is_free"`
}

// NewRecord builds a Record from raw storefront fields. The discount is
// clamped into [0,100], negative amounts become 0 and a missing currency
// defaults to USD; initial is raised to final so the pair stays ordered.
func NewRecord(appID int, currency string, initial, final, discount int, initialFormatted, finalFormatted string) Record {
	if currency == "" {
		currency = "USD"
	}
	if initial < 0 {
		initial = 0
	}
	if final < 0 {
		final = 0
	}
	if initial < final {
		initial = final
	}
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	return Record{
		AppID:            appID,
		Currency:         currency,
		Initial:          initial,
		Final:            final,
		DiscountPercent:  discount,
		InitialFormatted: initialFormatted,
		FinalFormatted:   finalFormatted,
	}
}

// FreeRecord is the record used for items the storefront lists without any
// price data.
func FreeRecord(appID int) Record {
	return Record{AppID: appID, Currency: "USD", IsFree: true}
}

// OnSale reports whether the item currently has a discount.
func (r Record) OnSale() bool { return r.DiscountPercent > 0 }

// StoreURL returns the storefront page for the item.
func (r Record) StoreURL() string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d/", r.AppID)
}
