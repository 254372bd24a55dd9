package delta

import "strconv"

// Wire payloads for the exchange endpoints the engine consumes. Decimal
// fields arrive as strings and are parsed with asFloat — a missing or
// malformed value decodes to 0 rather than failing the whole snapshot.

// productPayload is one entry of the public product list.
type productPayload struct {
	ID           int    `json:"id"`
	Symbol       string `json:"symbol"`
	ContractType string `json:"contract_type"`
	State        string `json:"state"`
}

// positionPayload is one entry of the positions endpoint. Size is a signed
// contract count: positive long, negative short.
type positionPayload struct {
	Size       float64 `json:"size"`
	EntryPrice string  `json:"entry_price"`
	Product    struct {
		ID     int    `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"product"`
	ProductID int `json:"product_id"`
}

// orderPayload is the market order submission body.
type orderPayload struct {
	ProductID int    `json:"product_id"`
	Size      int    `json:"size"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
}

// orderResult is the exchange's acknowledgment of an accepted order.
type orderResult struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
}

// balancePayload is one entry of the wallet balances endpoint.
type balancePayload struct {
	AssetSymbol      string `json:"asset_symbol"`
	AvailableBalance string `json:"available_balance"`
}

func asFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
