package deribit

import (
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// BookSummary is one instrument entry from
// public/get_book_summary_by_currency. Quote fields are nullable on the wire
// when a side has no orders.
type BookSummary struct {
	InstrumentName  string   `json:"instrument_name"`
	BidPrice        *float64 `json:"bid_price"`
	AskPrice        *float64 `json:"ask_price"`
	MarkIV          *float64 `json:"mark_iv"`
	UnderlyingIndex string   `json:"underlying_index"`
	UnderlyingPrice *float64 `json:"underlying_price"`
	Volume          *float64 `json:"volume"`
	VolumeUSD       *float64 `json:"volume_usd"`
	OpenInterest    *float64 `json:"open_interest"`
}

// ToOptionQuote converts a book summary into a chain snapshot row. Coin
// quotes are priced in USD with the instrument's own underlying price when
// the exchange reports one, falling back to the index price. It fails when
// the instrument name is not a parseable option.
func (b *BookSummary) ToOptionQuote(runTS time.Time, indexPrice float64) (domain.OptionQuote, error) {
	inst, err := ParseInstrument(b.InstrumentName)
	if err != nil {
		return domain.OptionQuote{}, err
	}

	px := indexPrice
	if b.UnderlyingPrice != nil && *b.UnderlyingPrice > 0 {
		px = *b.UnderlyingPrice
	}

	bid := orZero(b.BidPrice)
	ask := orZero(b.AskPrice)

	return domain.OptionQuote{
		RunTS:        runTS,
		SpotPrice:    indexPrice,
		Symbol:       b.InstrumentName,
		Type:         inst.Type,
		Strike:       inst.Strike,
		Expiry:       inst.Expiry,
		BidCoin:      bid,
		AskCoin:      ask,
		BidUSD:       bid * px,
		AskUSD:       ask * px,
		IV:           orZero(b.MarkIV),
		Underlying:   b.UnderlyingIndex,
		VolumeCoin:   orZero(b.Volume),
		VolumeUSD:    orZero(b.VolumeUSD),
		OpenInterest: orZero(b.OpenInterest),
	}, nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
