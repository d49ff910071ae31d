package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name        string
		runID       string
		instrument  string
		side        string
		entryTimeMs int64
		wantLen     int // hash length should be 64
	}{
		{
			name:        "buy trade",
			runID:       "run-2024-01-01",
			instrument:  "BTCUSDT",
			side:        "BUY",
			entryTimeMs: 1704067234567,
			wantLen:     64,
		},
		{
			name:        "sell trade",
			runID:       "run-2024-01-02",
			instrument:  "ETHUSDT",
			side:        "SELL",
			entryTimeMs: 1704067300000,
			wantLen:     64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.runID, tt.instrument, tt.side, tt.entryTimeMs)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Same inputs must produce the same output
			got2 := ComputeTradeID(tt.runID, tt.instrument, tt.side, tt.entryTimeMs)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("run", "BTCUSDT", "BUY", 1000)

	diffRun := ComputeTradeID("other_run", "BTCUSDT", "BUY", 1000)
	if base == diffRun {
		t.Error("Different run should produce different hash")
	}

	diffInstrument := ComputeTradeID("run", "ETHUSDT", "BUY", 1000)
	if base == diffInstrument {
		t.Error("Different instrument should produce different hash")
	}

	diffSide := ComputeTradeID("run", "BTCUSDT", "SELL", 1000)
	if base == diffSide {
		t.Error("Different side should produce different hash")
	}

	diffTime := ComputeTradeID("run", "BTCUSDT", "BUY", 2000)
	if base == diffTime {
		t.Error("Different entry time should produce different hash")
	}
}
