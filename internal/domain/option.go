package domain

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionQuote is one row of a daily Deribit option-chain snapshot.
// Coin-denominated quotes are converted to USD using the index price at
// snapshot time.
type OptionQuote struct {
	RunTS      time.Time
	SpotPrice  float64
	Symbol     string
	Type       OptionType
	Strike     float64
	Expiry     time.Time
	BidCoin    float64
	AskCoin    float64
	BidUSD     float64
	AskUSD     float64
	IV           float64
	Underlying   string
	VolumeCoin   float64
	VolumeUSD    float64
	OpenInterest float64
}
