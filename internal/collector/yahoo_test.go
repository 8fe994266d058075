package collector

import (
	"testing"
	"time"
)

func TestDecodeChart_Bars(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"timestamp":[1717400000,1717403600],
		"indicators":{"quote":[{"open":[100.0,101.0],"high":[102.0,103.0],
		"low":[99.0,100.0],"close":[101.0,102.0],"volume":[1000,2000]}]}}]}}`)

	bars, err := decodeChart(body)
	if err != nil {
		t.Fatalf("decodeChart: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if !bars[0].Time.Equal(time.Unix(1717400000, 0)) {
		t.Errorf("bar time = %v", bars[0].Time)
	}
	if bars[0].Close != 101.0 || bars[1].Volume != 2000 {
		t.Errorf("bar fields wrong: %+v", bars)
	}
}

func TestDecodeChart_NullBarsSkipped(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"timestamp":[1717400000,1717403600],
		"indicators":{"quote":[{"open":[null,101.0],"high":[null,103.0],
		"low":[null,100.0],"close":[null,102.0],"volume":[null,2000]}]}}]}}`)

	bars, err := decodeChart(body)
	if err != nil {
		t.Fatalf("decodeChart: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1 (null bar skipped)", len(bars))
	}
}

// Timestamps can arrive with an empty quote set; that must surface as an
// error, not a panic.
func TestDecodeChart_EmptyQuoteSet(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"timestamp":[1717400000],"indicators":{"quote":[]}}]}}`)

	if _, err := decodeChart(body); err == nil {
		t.Fatal("expected an error for an empty quote set")
	}
}

// Quote arrays shorter than the timestamp list must not be indexed past
// their end.
func TestDecodeChart_ShortQuoteArrays(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"timestamp":[1717400000,1717403600,1717407200],
		"indicators":{"quote":[{"open":[100.0],"high":[102.0],
		"low":[99.0],"close":[101.0],"volume":[]}]}}]}}`)

	bars, err := decodeChart(body)
	if err != nil {
		t.Fatalf("decodeChart: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1 (unbacked timestamps dropped)", len(bars))
	}
	if bars[0].Volume != 0 {
		t.Errorf("missing volume should read as 0, got %v", bars[0].Volume)
	}
}

func TestDecodeChart_APIError(t *testing.T) {
	body := []byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)

	if _, err := decodeChart(body); err == nil {
		t.Fatal("expected an error for an API error payload")
	}
}
