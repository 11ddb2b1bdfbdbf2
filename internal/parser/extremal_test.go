package parser

import (
	"math/rand"
	"testing"
)

// decodeOrderVideo is an IBBP GOP in decode order: presentation order differs.
var decodeOrderVideo = []string{
	"[out] key: 1 stream_index: 0 pts_time: 4.0000 dts_time: 3.9200 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.1200 dts_time: 3.9600 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.0400 dts_time: 4.0000 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.0800 dts_time: 4.0400 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.2400 dts_time: 4.0800 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.1600 dts_time: 4.1200 duration_time: 0.0400",
	"[out] key: 0 stream_index: 0 pts_time: 4.2000 dts_time: 4.1600 duration_time: 0.0400",
}

func TestMaxByPTS(t *testing.T) {
	rec, ok := MaxByPTS(decodeOrderVideo)
	if !ok {
		t.Fatal("MaxByPTS returned !ok")
	}
	if rec.PTS != 4.24 {
		t.Errorf("PTS = %v, want 4.24", rec.PTS)
	}
	if rec.DTS != 4.08 {
		t.Errorf("DTS = %v, want 4.08 (not the last decode-order packet)", rec.DTS)
	}
}

func TestMinByPTS(t *testing.T) {
	rec, ok := MinByPTS(decodeOrderVideo)
	if !ok {
		t.Fatal("MinByPTS returned !ok")
	}
	if rec.PTS != 4.0 {
		t.Errorf("PTS = %v, want 4.0", rec.PTS)
	}
}

func TestExtremal_Empty(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"nil", nil},
		{"empty", []string{}},
		{"all_unparsable", []string{
			"[out] key: 0 stream_index: 0 pts_time: NOPTS dts_time: NOPTS duration_time: 0.0400",
			"garbage",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := MaxByPTS(tt.lines); ok {
				t.Error("MaxByPTS ok = true, want false")
			}
			if _, ok := MinByPTS(tt.lines); ok {
				t.Error("MinByPTS ok = true, want false")
			}
		})
	}
}

func TestExtremal_SkipsUnparsable(t *testing.T) {
	lines := []string{
		"[out] key: 0 stream_index: 1 pts_time: NOPTS dts_time: NOPTS duration_time: 0.021333",
		"[out] key: 1 stream_index: 1 pts_time: 3.957333 dts_time: 3.957333 duration_time: 0.021333",
		"[out] key: 1 stream_index: 1 pts_time: 3.978667 dts_time: 3.978667 duration_time: 0.021333",
		"not a packet",
	}

	maxRec, ok := MaxByPTS(lines)
	if !ok || maxRec.PTS != 3.978667 {
		t.Errorf("MaxByPTS = %+v, %v; want PTS 3.978667", maxRec, ok)
	}
	minRec, ok := MinByPTS(lines)
	if !ok || minRec.PTS != 3.957333 {
		t.Errorf("MinByPTS = %+v, %v; want PTS 3.957333", minRec, ok)
	}
}

func TestExtremal_OrderIndependent(t *testing.T) {
	wantMax, _ := MaxByPTS(decodeOrderVideo)
	wantMin, _ := MinByPTS(decodeOrderVideo)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]string, len(decodeOrderVideo))
		copy(shuffled, decodeOrderVideo)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		gotMax, _ := MaxByPTS(shuffled)
		gotMin, _ := MinByPTS(shuffled)
		if gotMax.PTS != wantMax.PTS {
			t.Fatalf("permutation %d: max PTS = %v, want %v", i, gotMax.PTS, wantMax.PTS)
		}
		if gotMin.PTS != wantMin.PTS {
			t.Fatalf("permutation %d: min PTS = %v, want %v", i, gotMin.PTS, wantMin.PTS)
		}
	}
}

func TestFirstParsed(t *testing.T) {
	lines := append([]string{"garbage"}, decodeOrderVideo...)

	tests := []struct {
		name    string
		n       int
		wantLen int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"two", 2, 2},
		{"all", len(decodeOrderVideo), len(decodeOrderVideo)},
		{"more_than_available", 100, len(decodeOrderVideo)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstParsed(lines, tt.n)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen >= 2 {
				if got[0].DTS != 3.92 || got[1].DTS != 3.96 {
					t.Errorf("decode order not kept: DTS %v, %v", got[0].DTS, got[1].DTS)
				}
			}
		})
	}
}
