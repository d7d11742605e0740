package dto

// Quote is one symbol's resolved snapshot from a batched upstream query.
// Price is already resolved through the trade/bid/ask/prior-close fallback
// chain; High, Low and YesterdayClose are 0 when the upstream field was
// missing or invalid.
type Quote struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"current_price"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	YesterdayClose float64 `json:"yesterday_close"`
	Volume         float64 `json:"volume"`
	Time           string  `json:"time"`
}

// TWSEResponse mirrors the JSON body of the TWSE getStockInfo endpoint.
type TWSEResponse struct {
	MsgArray []TWSEMessage `json:"msgArray"`
}

// TWSEMessage is one per-symbol record. Prices arrive as strings and may be
// the "-" sentinel; bid/ask ladders are "_"-delimited strings.
type TWSEMessage struct {
	Code       string `json:"c"`
	Name       string `json:"n"`
	TradePrice string `json:"z"`
	BidLadder  string `json:"b"`
	AskLadder  string `json:"a"`
	High       string `json:"h"`
	Low        string `json:"l"`
	PrevClose  string `json:"y"`
	Volume     string `json:"v"`
	TradeTime  string `json:"t"`
	FullKey    string `json:"ch"`
}
