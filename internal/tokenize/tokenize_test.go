package tokenize

import (
	"reflect"
	"testing"
)

func TestAnalyze_Basic(t *testing.T) {
	got := Analyze("The Quick Brown Fox")
	want := []string{"quick", "brown", "fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
}

func TestAnalyze_Delimiters(t *testing.T) {
	got := Analyze("well-known_file.name")
	// "well" and "name" are split out and then removed as stopwords.
	want := []string{"known", "file"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
}

func TestAnalyze_NumericFilter(t *testing.T) {
	got := Analyze("room 9 has 10 chairs and 99 tables")
	// Only numbers strictly below 10 are dropped; 10 and 99 are kept.
	want := []string{"room", "10", "chairs", "99", "tables"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
}

func TestAnalyze_StopwordsRemoved(t *testing.T) {
	got := Analyze("the cat and the hat")
	want := []string{"cat", "hat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	got := Analyze("")
	if len(got) != 0 {
		t.Errorf("Analyze(\"\") = %v, want empty", got)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	input := "Machine Learning algorithms process 42 documents-per-second."
	first := Analyze(input)
	second := Analyze(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Analyze is not deterministic: %v != %v", first, second)
	}
}

func TestAnalyzeWithOptions_Stemming(t *testing.T) {
	got := AnalyzeWithOptions("running runners connection", Options{Stem: true})
	want := []string{"run", "runner", "connect"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AnalyzeWithOptions(stem) = %v, want %v", got, want)
	}
}

func TestAnalyzeWithOptions_NoStemByDefault(t *testing.T) {
	got := Analyze("running")
	want := []string{"running"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v (no stemming by default)", got, want)
	}
}

func TestAnalyze_ToyCorpusTerms(t *testing.T) {
	// spec.md §8 scenario 1's toy corpus terms must survive analysis
	// unchanged, since BM25 ordering assertions depend on literal matches.
	for _, doc := range []string{"alpha beta gamma", "alpha gamma", "beta gamma"} {
		tokens := Analyze(doc)
		if len(tokens) == 0 {
			t.Fatalf("Analyze(%q) returned no tokens", doc)
		}
	}
	if got := Analyze("alpha beta gamma"); !reflect.DeepEqual(got, []string{"alpha", "beta", "gamma"}) {
		t.Errorf("Analyze(toy corpus) = %v", got)
	}
}
