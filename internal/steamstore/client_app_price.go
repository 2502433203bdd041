package steamstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"
)

// ErrNotListed is returned when the storefront has no catalog entry for the
// identifier, or explicitly reports non-success for it.
var ErrNotListed = errors.New("steamstore: app not listed")

// PriceOverview is the storefront's current pricing for one item. Amounts
// are in the currency's minor units.
type PriceOverview struct {
	Currency         string `json:"currency"`
	Initial          int    `json:"initial"`
	Final            int    `json:"final"`
	DiscountPercent  int    `json:"discount_percent"`
	InitialFormatted string `json:"initial_formatted"`
	FinalFormatted   string `json:"final_formatted"`
}

// AppPrice is the parsed pricing entry for one identifier.
type AppPrice struct {
	AppID int
	// Free marks an entry the storefront reports as successful but carries
	// no price data for.
	Free bool
	// Overview is nil when Free is true.
	Overview *PriceOverview
}

// GetAppPrice retrieves the price overview for a single identifier from the
// appdetails endpoint, filtered down to the price_overview block.
func (c *Client) GetAppPrice(ctx context.Context, appID int, countryCode string) (*AppPrice, error) {
	query := maps.Clone(c.query)
	query.Set("appids", strconv.Itoa(appID))
	query.Set("cc", countryCode)
	query.Set("filters", "price_overview")

	url := fmt.Sprintf("%s/appdetails?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body map[string]appEntry
	dec := json.NewDecoder(res.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding appdetails response: %w", err)
	}

	entry, ok := body[strconv.Itoa(appID)]
	if !ok || !entry.Success {
		return nil, ErrNotListed
	}

	// A successful entry may carry no data at all, data as an empty array
	// (storefront quirk) or data without a price_overview block. All of
	// those mean the item costs nothing.
	var data appData
	if len(entry.Data) == 0 || json.Unmarshal(entry.Data, &data) != nil || data.PriceOverview == nil {
		return &AppPrice{AppID: appID, Free: true}, nil
	}

	overview := *data.PriceOverview
	if overview.Currency == "" {
		overview.Currency = "USD"
	}
	return &AppPrice{AppID: appID, Overview: &overview}, nil
}

type appEntry struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appData struct {
	PriceOverview *PriceOverview `json:"price_overview"`
}
