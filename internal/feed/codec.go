package feed

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedFrame indicates an inbound binary frame could not be decoded.
// Decode failures are non-fatal: the caller drops the frame and the
// session stays subscribed.
var ErrMalformedFrame = errors.New("malformed feed frame")

// The feed payload is protobuf. Only the fields below are consumed;
// everything else is skipped field-by-field.
//
//	FeedResponse: 2 = feeds (map<string, Feed>), 3 = currentTs (int64 ms)
//	map entry:    1 = key (string),  2 = value (Feed)
//	Feed:         1 = ltpc (LTPC),   2 = fullFeed (FullFeed)
//	FullFeed:     1 = marketFF,      2 = indexFF (both carry LTPC at 1)
//	LTPC:         1 = ltp (double)
const (
	fieldFeeds     = 2
	fieldCurrentTs = 3

	fieldMapKey   = 1
	fieldMapValue = 2

	fieldFeedLTPC = 1
	fieldFeedFull = 2

	fieldFullMarket = 1
	fieldFullIndex  = 2

	fieldLTPCPrice = 1
)

// Variant identifies which payload shape carried the price. The same
// logical LTP appears under different shapes depending on feed mode; the
// decoder tries them in a fixed priority order and takes the first present.
type Variant uint8

const (
	VariantLTPC Variant = iota // plain ltpc payload ("ltp" mode)
	VariantMarketFull          // fullFeed.marketFF.ltpc ("full" mode, options)
	VariantIndexFull           // fullFeed.indexFF.ltpc ("full" mode, indices)
)

func (v Variant) String() string {
	switch v {
	case VariantLTPC:
		return "ltpc"
	case VariantMarketFull:
		return "marketFF"
	case VariantIndexFull:
		return "indexFF"
	default:
		return "unknown"
	}
}

// Entry is one per-instrument price extracted from a frame, in wire order.
type Entry struct {
	InstrumentKey string
	LTP           float64
	Variant       Variant
}

// DecodeFrame decodes one binary frame into its per-instrument entries
// and the feed's own timestamp (epoch ms, 0 if absent). An entry with a
// zero LTP is returned as-is; treating zero as absent is tick-emission
// policy, not a wire concern.
func DecodeFrame(data []byte) ([]Entry, int64, error) {
	var entries []Entry
	var currentTs int64

	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, 0, malformed("tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldFeeds && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, 0, malformed("feeds entry", protowire.ParseError(n))
			}
			b = b[n:]

			entry, ok, err := decodeMapEntry(v)
			if err != nil {
				return nil, 0, err
			}
			if ok {
				entries = append(entries, entry)
			}

		case num == fieldCurrentTs && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, 0, malformed("currentTs", protowire.ParseError(n))
			}
			b = b[n:]
			currentTs = int64(v)

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, 0, malformed("field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	return entries, currentTs, nil
}

// decodeMapEntry decodes one feeds map entry. Entries whose Feed carries
// no recognizable price shape are reported as absent, not as errors:
// the schema grows shapes this decoder does not know.
func decodeMapEntry(b []byte) (Entry, bool, error) {
	var key string
	var feedBytes []byte

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Entry{}, false, malformed("map tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldMapKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Entry{}, false, malformed("map key", protowire.ParseError(n))
			}
			b = b[n:]
			key = string(v)

		case num == fieldMapValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Entry{}, false, malformed("map value", protowire.ParseError(n))
			}
			b = b[n:]
			feedBytes = v

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Entry{}, false, malformed("map field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if key == "" || feedBytes == nil {
		return Entry{}, false, nil
	}

	ltp, variant, ok, err := decodeFeedLTP(feedBytes)
	if err != nil {
		return Entry{}, false, err
	}
	if !ok {
		return Entry{}, false, nil
	}

	return Entry{InstrumentKey: key, LTP: ltp, Variant: variant}, true, nil
}

// decodeFeedLTP extracts the LTP from a Feed message, trying each known
// payload variant in fixed priority order: plain ltpc, then
// fullFeed.marketFF, then fullFeed.indexFF.
func decodeFeedLTP(b []byte) (float64, Variant, bool, error) {
	var ltpcBytes, fullBytes []byte

	if err := eachField(b, "feed", func(num protowire.Number, v []byte) {
		switch num {
		case fieldFeedLTPC:
			ltpcBytes = v
		case fieldFeedFull:
			fullBytes = v
		}
	}); err != nil {
		return 0, 0, false, err
	}

	if ltpcBytes != nil {
		ltp, ok, err := decodeLTPC(ltpcBytes)
		if err != nil || ok {
			return ltp, VariantLTPC, ok, err
		}
	}

	if fullBytes != nil {
		var marketBytes, indexBytes []byte
		if err := eachField(fullBytes, "fullFeed", func(num protowire.Number, v []byte) {
			switch num {
			case fieldFullMarket:
				marketBytes = v
			case fieldFullIndex:
				indexBytes = v
			}
		}); err != nil {
			return 0, 0, false, err
		}

		for _, cand := range []struct {
			bytes   []byte
			variant Variant
		}{
			{marketBytes, VariantMarketFull},
			{indexBytes, VariantIndexFull},
		} {
			if cand.bytes == nil {
				continue
			}
			var inner []byte
			if err := eachField(cand.bytes, "fullFeed inner", func(num protowire.Number, v []byte) {
				if num == fieldFeedLTPC {
					inner = v
				}
			}); err != nil {
				return 0, 0, false, err
			}
			if inner == nil {
				continue
			}
			ltp, ok, err := decodeLTPC(inner)
			if err != nil || ok {
				return ltp, cand.variant, ok, err
			}
		}
	}

	return 0, 0, false, nil
}

// decodeLTPC extracts the ltp double from an LTPC message.
func decodeLTPC(b []byte) (float64, bool, error) {
	var ltp float64
	var found bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, false, malformed("ltpc tag", protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldLTPCPrice && typ == protowire.Fixed64Type {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, false, malformed("ltp", protowire.ParseError(n))
			}
			b = b[n:]
			ltp = math.Float64frombits(v)
			found = true
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return 0, false, malformed("ltpc field", protowire.ParseError(n))
		}
		b = b[n:]
	}

	return ltp, found, nil
}

// eachField walks a message's length-delimited fields, handing their
// payloads to fn and skipping everything else.
func eachField(b []byte, what string, fn func(num protowire.Number, v []byte)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return malformed(what+" tag", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return malformed(what, protowire.ParseError(n))
			}
			b = b[n:]
			fn(num, v)
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return malformed(what, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, what, err)
}
