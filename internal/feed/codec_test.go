package feed

import (
	"errors"
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendLTPC(b []byte, ltp float64) []byte {
	b = protowire.AppendTag(b, fieldLTPCPrice, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(ltp))
}

func appendFeedEntry(b []byte, key string, feed []byte) []byte {
	var entry []byte
	entry = protowire.AppendTag(entry, fieldMapKey, protowire.BytesType)
	entry = protowire.AppendString(entry, key)
	entry = protowire.AppendTag(entry, fieldMapValue, protowire.BytesType)
	entry = protowire.AppendBytes(entry, feed)

	b = protowire.AppendTag(b, fieldFeeds, protowire.BytesType)
	return protowire.AppendBytes(b, entry)
}

func ltpcFeed(ltp float64) []byte {
	var feed []byte
	feed = protowire.AppendTag(feed, fieldFeedLTPC, protowire.BytesType)
	return protowire.AppendBytes(feed, appendLTPC(nil, ltp))
}

func fullFeed(inner protowire.Number, ltp float64) []byte {
	var ff []byte
	ff = protowire.AppendTag(ff, fieldFeedLTPC, protowire.BytesType)
	ff = protowire.AppendBytes(ff, appendLTPC(nil, ltp))

	var full []byte
	full = protowire.AppendTag(full, inner, protowire.BytesType)
	full = protowire.AppendBytes(full, ff)

	var feed []byte
	feed = protowire.AppendTag(feed, fieldFeedFull, protowire.BytesType)
	return protowire.AppendBytes(feed, full)
}

func TestDecodeFrameLTPC(t *testing.T) {
	frame := appendFeedEntry(nil, "NSE_FO|54321", ltpcFeed(123.45))
	frame = protowire.AppendTag(frame, fieldCurrentTs, protowire.VarintType)
	frame = protowire.AppendVarint(frame, 1700000000000)

	entries, ts, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if ts != 1700000000000 {
		t.Errorf("currentTs = %d, want 1700000000000", ts)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.InstrumentKey != "NSE_FO|54321" {
		t.Errorf("key = %q", e.InstrumentKey)
	}
	if e.LTP != 123.45 {
		t.Errorf("ltp = %v, want 123.45", e.LTP)
	}
	if e.Variant != VariantLTPC {
		t.Errorf("variant = %v, want ltpc", e.Variant)
	}
}

func TestDecodeFrameFullFeedVariants(t *testing.T) {
	tests := []struct {
		name    string
		inner   protowire.Number
		variant Variant
	}{
		{"market", fieldFullMarket, VariantMarketFull},
		{"index", fieldFullIndex, VariantIndexFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := appendFeedEntry(nil, "NSE_INDEX|Nifty 50", fullFeed(tt.inner, 22150.5))

			entries, _, err := DecodeFrame(frame)
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			if entries[0].LTP != 22150.5 {
				t.Errorf("ltp = %v, want 22150.5", entries[0].LTP)
			}
			if entries[0].Variant != tt.variant {
				t.Errorf("variant = %v, want %v", entries[0].Variant, tt.variant)
			}
		})
	}
}

func TestDecodeFrameVariantPriority(t *testing.T) {
	// A Feed carrying both ltpc and fullFeed must prefer ltpc; a
	// fullFeed carrying both marketFF and indexFF must prefer marketFF.
	both := ltpcFeed(10)
	both = append(both, fullFeed(fieldFullMarket, 20)...)

	frame := appendFeedEntry(nil, "NSE_FO|1", both)
	frame = appendFeedEntry(frame, "NSE_FO|2", func() []byte {
		// one FullFeed carrying both marketFF and indexFF
		wrap := func(ltp float64) []byte {
			var ff []byte
			ff = protowire.AppendTag(ff, fieldFeedLTPC, protowire.BytesType)
			return protowire.AppendBytes(ff, appendLTPC(nil, ltp))
		}
		var full []byte
		full = protowire.AppendTag(full, fieldFullMarket, protowire.BytesType)
		full = protowire.AppendBytes(full, wrap(30))
		full = protowire.AppendTag(full, fieldFullIndex, protowire.BytesType)
		full = protowire.AppendBytes(full, wrap(40))

		var feed []byte
		feed = protowire.AppendTag(feed, fieldFeedFull, protowire.BytesType)
		return protowire.AppendBytes(feed, full)
	}())

	entries, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].LTP != 10 || entries[0].Variant != VariantLTPC {
		t.Errorf("entry 0 = %+v, want ltp 10 via ltpc", entries[0])
	}
	if entries[1].LTP != 30 || entries[1].Variant != VariantMarketFull {
		t.Errorf("entry 1 = %+v, want ltp 30 via marketFF", entries[1])
	}
}

func TestDecodeFrameWireOrder(t *testing.T) {
	frame := appendFeedEntry(nil, "NSE_FO|b", ltpcFeed(2))
	frame = appendFeedEntry(frame, "NSE_FO|a", ltpcFeed(1))
	frame = appendFeedEntry(frame, "NSE_FO|c", ltpcFeed(3))

	entries, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	want := []string{"NSE_FO|b", "NSE_FO|a", "NSE_FO|c"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, k := range want {
		if entries[i].InstrumentKey != k {
			t.Errorf("entry %d key = %q, want %q", i, entries[i].InstrumentKey, k)
		}
	}
}

func TestDecodeFrameZeroLTP(t *testing.T) {
	// Zero is a valid wire value; dropping it is the session's policy.
	frame := appendFeedEntry(nil, "NSE_FO|1", ltpcFeed(0))

	entries, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(entries) != 1 || entries[0].LTP != 0 {
		t.Fatalf("entries = %+v, want one zero-ltp entry", entries)
	}
}

func TestDecodeFrameSkipsUnknownFields(t *testing.T) {
	var frame []byte
	frame = protowire.AppendTag(frame, 9, protowire.VarintType)
	frame = protowire.AppendVarint(frame, 7)
	frame = protowire.AppendTag(frame, 10, protowire.BytesType)
	frame = protowire.AppendString(frame, "ignored")
	frame = appendFeedEntry(frame, "NSE_FO|1", ltpcFeed(99))

	entries, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(entries) != 1 || entries[0].LTP != 99 {
		t.Fatalf("entries = %+v, want one entry with ltp 99", entries)
	}
}

func TestDecodeFrameUnknownFeedShape(t *testing.T) {
	// A Feed with no recognizable price shape yields no entry, not an error.
	var feed []byte
	feed = protowire.AppendTag(feed, 7, protowire.BytesType)
	feed = protowire.AppendString(feed, "something else")

	frame := appendFeedEntry(nil, "NSE_FO|1", feed)
	frame = appendFeedEntry(frame, "NSE_FO|2", ltpcFeed(5))

	entries, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(entries) != 1 || entries[0].InstrumentKey != "NSE_FO|2" {
		t.Fatalf("entries = %+v, want only NSE_FO|2", entries)
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"truncated entry", func() []byte {
			frame := appendFeedEntry(nil, "NSE_FO|1", ltpcFeed(5))
			return frame[:len(frame)-3]
		}()},
		{"truncated ltp", func() []byte {
			var ltpc []byte
			ltpc = protowire.AppendTag(ltpc, fieldLTPCPrice, protowire.Fixed64Type)
			ltpc = append(ltpc, 0x01, 0x02) // fixed64 needs 8 bytes
			var feed []byte
			feed = protowire.AppendTag(feed, fieldFeedLTPC, protowire.BytesType)
			feed = protowire.AppendBytes(feed, ltpc)
			return appendFeedEntry(nil, "NSE_FO|1", feed)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeFrame(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("err = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestDecodeFrameEmpty(t *testing.T) {
	entries, ts, err := DecodeFrame(nil)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(entries) != 0 || ts != 0 {
		t.Errorf("got entries=%v ts=%d, want none", entries, ts)
	}
}
