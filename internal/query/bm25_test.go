package query

import (
	"math"
	"testing"
)

func TestIDF_LiteralFormula(t *testing.T) {
	// N=10, df=2: ln((10-2+0.5)/(2+0.5)) + 1 = ln(8.5/2.5) + 1
	got := idf(10, 2)
	want := math.Log(8.5/2.5) + 1
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("idf(10,2) = %v, want %v", got, want)
	}
}

func TestIDF_DecreasesAsDocFreqIncreases(t *testing.T) {
	rare := idf(1000, 5)
	common := idf(1000, 500)
	if rare <= common {
		t.Errorf("idf(rare)=%v should exceed idf(common)=%v", rare, common)
	}
}

func TestScore_ZeroWhenTermFrequencyZero(t *testing.T) {
	got := score(0, 5, 100, 20, 25)
	if got != 0 {
		t.Errorf("score with tf=0 = %v, want 0", got)
	}
}

func TestScore_ShorterDocumentScoresHigherAtEqualTF(t *testing.T) {
	short := score(1, 2, 3, 2, 3)
	long := score(1, 2, 3, 10, 3)
	if short <= long {
		t.Errorf("shorter doc score %v should exceed longer doc score %v (length normalization)", short, long)
	}
}

func TestScore_HigherTFScoresHigher(t *testing.T) {
	low := score(1, 2, 10, 5, 5)
	high := score(5, 2, 10, 5, 5)
	if high <= low {
		t.Errorf("higher tf score %v should exceed lower tf score %v", high, low)
	}
}
