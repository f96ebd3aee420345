package detector

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"insiderwatch/pkg/models"
)

func population(n int) []models.FeatureVector {
	out := make([]models.FeatureVector, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.FeatureVector{
			UserID:              fmt.Sprintf("user-%02d", i),
			LoginTimeVariance:   0.5 + 0.1*float64(i%4),
			FileAccessCount:     5 + i%3,
			AfterHoursActivity:  i % 2,
			FailedLoginAttempts: i % 2,
			SensitiveDataAccess: 0,
			TotalActions:        20 + i%5,
		})
	}
	return out
}

func TestScorePreservesUsersAndSorts(t *testing.T) {
	vectors := population(12)

	scored, err := NewScorer(Config{}).Score(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != len(vectors) {
		t.Fatalf("expected %d scored users, got %d", len(vectors), len(scored))
	}

	seen := make(map[string]bool, len(scored))
	for _, u := range scored {
		if u.AnomalyScore < 0 || u.AnomalyScore > 1 || math.IsNaN(u.AnomalyScore) {
			t.Fatalf("score out of range for %s: %f", u.UserID, u.AnomalyScore)
		}
		seen[u.UserID] = true
	}
	for _, v := range vectors {
		if !seen[v.UserID] {
			t.Fatalf("user %s missing from output", v.UserID)
		}
	}
	for i := 1; i < len(scored); i++ {
		if scored[i-1].AnomalyScore < scored[i].AnomalyScore {
			t.Fatalf("output not sorted by descending score at %d", i)
		}
	}
}

func TestScoreOutlierFraction(t *testing.T) {
	cases := []struct {
		n             int
		contamination float64
		want          int
	}{
		{10, 0.3, 3},
		{20, 0.05, 1},
		{8, 0.05, 0},
		{3, 0.33, 1},
	}

	for _, tc := range cases {
		scored, err := NewScorer(Config{Contamination: tc.contamination}).Score(population(tc.n))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tc.n, err)
		}
		got := 0
		for _, u := range scored {
			if u.IsOutlier {
				got++
			}
		}
		if got != tc.want {
			t.Fatalf("n=%d contamination=%f: expected %d outliers, got %d", tc.n, tc.contamination, tc.want, got)
		}
		for i, u := range scored {
			if u.IsOutlier != (i < tc.want) {
				t.Fatalf("n=%d: outliers are not a prefix of the ranking", tc.n)
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	vectors := population(40)
	vectors[7].FailedLoginAttempts = 9
	vectors[7].SensitiveDataAccess = 4

	first, err := NewScorer(Config{Workers: 1}).Score(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, workers := range []int{1, 4, 16} {
		again, err := NewScorer(Config{Workers: workers}).Score(vectors)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		for i := range first {
			if first[i].UserID != again[i].UserID || first[i].AnomalyScore != again[i].AnomalyScore || first[i].IsOutlier != again[i].IsOutlier {
				t.Fatalf("workers=%d: run differs at %d: %+v vs %+v", workers, i, first[i], again[i])
			}
		}
	}
}

func TestScoreFlagsExtremeUser(t *testing.T) {
	vectors := population(20)
	vectors = append(vectors, models.FeatureVector{UserID: "zero"})
	vectors = append(vectors, models.FeatureVector{
		UserID:              "extreme",
		LoginTimeVariance:   50,
		FileAccessCount:     90,
		AfterHoursActivity:  40,
		FailedLoginAttempts: 20,
		SensitiveDataAccess: 30,
		TotalActions:        200,
	})

	scored, err := NewScorer(Config{Contamination: 0.1}).Score(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int, len(scored))
	for i, u := range scored {
		pos[u.UserID] = i
	}
	if pos["extreme"] > pos["zero"] {
		t.Fatalf("extreme user ranked below the all-zero user: %d vs %d", pos["extreme"], pos["zero"])
	}
	if !scored[pos["extreme"]].IsOutlier {
		t.Fatalf("extreme user not flagged as outlier")
	}
}

func TestScoreInsufficientData(t *testing.T) {
	if _, err := NewScorer(Config{}).Score(nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty input, got %v", err)
	}
	one := population(1)
	if _, err := NewScorer(Config{}).Score(one); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for a single user, got %v", err)
	}
}

func TestScoreIdenticalPopulation(t *testing.T) {
	vectors := make([]models.FeatureVector, 5)
	for i := range vectors {
		vectors[i] = models.FeatureVector{
			UserID:          fmt.Sprintf("clone-%d", i),
			FileAccessCount: 7,
			TotalActions:    30,
		}
	}

	scored, err := NewScorer(Config{Contamination: 0.4}).Score(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// every column is degenerate, so every user collapses to the same
	// point and the ensemble returns the neutral score
	for _, u := range scored {
		if math.IsNaN(u.AnomalyScore) {
			t.Fatalf("NaN score for %s", u.UserID)
		}
		if math.Abs(u.AnomalyScore-0.5) > 1e-12 {
			t.Fatalf("expected neutral score 0.5 for %s, got %f", u.UserID, u.AnomalyScore)
		}
	}

	// all scores tie, so the stable sort must keep insertion order and
	// outlier flags must go to the earliest entries
	for i, u := range scored {
		if u.UserID != vectors[i].UserID {
			t.Fatalf("tie order not stable at %d: %s", i, u.UserID)
		}
		if u.IsOutlier != (i < 2) {
			t.Fatalf("expected round(0.4*5)=2 leading outliers, got flag %v at %d", u.IsOutlier, i)
		}
	}
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	vectors := population(10)
	copies := append([]models.FeatureVector(nil), vectors...)

	if _, err := NewScorer(Config{}).Score(vectors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vectors {
		if vectors[i] != copies[i] {
			t.Fatalf("input vector %d mutated", i)
		}
	}
}
