package detector

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

// ErrInsufficientData reports a population too small to score.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 users")

// subsampleCap bounds the per-tree training subsample.
const subsampleCap = 256

// Feature column names, in matrix order. Weight maps key on these.
const (
	FeatureLoginTimeVariance   = "login_time_variance"
	FeatureFileAccessCount     = "file_access_count"
	FeatureAfterHoursActivity  = "after_hours_activity"
	FeatureFailedLoginAttempts = "failed_login_attempts"
	FeatureSensitiveDataAccess = "sensitive_data_access"
	FeatureTotalActions        = "total_actions"
)

var featureOrder = []string{
	FeatureLoginTimeVariance,
	FeatureFileAccessCount,
	FeatureAfterHoursActivity,
	FeatureFailedLoginAttempts,
	FeatureSensitiveDataAccess,
	FeatureTotalActions,
}

// DefaultWeights returns the stock feature weighting. Features absent
// from a weight map (total_actions here) weigh 1.0.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		FeatureLoginTimeVariance:   1.0,
		FeatureFileAccessCount:     1.0,
		FeatureAfterHoursActivity:  1.5,
		FeatureFailedLoginAttempts: 2.0,
		FeatureSensitiveDataAccess: 2.0,
	}
}

// Config controls the scorer.
type Config struct {
	Contamination float64
	Trees         int
	Seed          int64
	Workers       int
	Weights       map[string]float64
}

// Scorer ranks users by behavioral anomalousness with an isolation
// forest grown from seeded random subsamples.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer, applying defaults for unset Config fields.
func NewScorer(cfg Config) *Scorer {
	if cfg.Contamination <= 0 || cfg.Contamination >= 1 {
		cfg.Contamination = 0.05
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Scorer{cfg: cfg}
}

// Score returns one ScoredUser per input vector, sorted by descending
// anomaly score (ties keep input order), with the top
// round(contamination*N) flagged as outliers. Identical vectors, config,
// and seed produce bit-identical output for any worker count.
func (s *Scorer) Score(vectors []models.FeatureVector) ([]models.ScoredUser, error) {
	n := len(vectors)
	if n < 2 {
		return nil, ErrInsufficientData
	}

	data := s.matrix(vectors)
	standardize(data)

	sampleSize := n
	if sampleSize > subsampleCap {
		sampleSize = subsampleCap
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))

	trees := s.buildForest(data, sampleSize, maxDepth)
	norm := avgPathLength(sampleSize)

	scored := make([]models.ScoredUser, n)
	for i, v := range vectors {
		var sum float64
		for _, tree := range trees {
			sum += pathLength(tree, data[i])
		}
		avg := sum / float64(len(trees))
		scored[i] = models.ScoredUser{
			FeatureVector: v,
			AnomalyScore:  math.Exp2(-avg / norm),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].AnomalyScore > scored[j].AnomalyScore
	})

	outliers := int(math.Round(s.cfg.Contamination * float64(n)))
	for i := 0; i < outliers && i < n; i++ {
		scored[i].IsOutlier = true
	}

	return scored, nil
}

// matrix converts vectors into weighted float columns in featureOrder.
func (s *Scorer) matrix(vectors []models.FeatureVector) [][]float64 {
	weights := make([]float64, len(featureOrder))
	for j, name := range featureOrder {
		w, ok := s.cfg.Weights[name]
		if !ok {
			w = 1.0
		}
		weights[j] = w
	}

	data := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := []float64{
			v.LoginTimeVariance,
			float64(v.FileAccessCount),
			float64(v.AfterHoursActivity),
			float64(v.FailedLoginAttempts),
			float64(v.SensitiveDataAccess),
			float64(v.TotalActions),
		}
		for j := range row {
			row[j] *= weights[j]
		}
		data[i] = row
	}
	return data
}

// standardize rescales every column to zero mean and unit sample
// standard deviation in place. A zero-variance column carries no signal
// and becomes all zeros.
func standardize(data [][]float64) {
	if len(data) == 0 {
		return
	}
	n := float64(len(data))
	for j := range data[0] {
		var sum float64
		for i := range data {
			sum += data[i][j]
		}
		mean := sum / n
		var ss float64
		for i := range data {
			d := data[i][j] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / (n - 1))
		if std == 0 {
			for i := range data {
				data[i][j] = 0
			}
			logger.Debugf("Zero-variance feature %q zero-filled for scoring", featureOrder[j])
			continue
		}
		for i := range data {
			data[i][j] = (data[i][j] - mean) / std
		}
	}
}

// buildForest grows the configured number of trees in a bounded worker
// pool. Every tree draws its subsample and splits from its own
// sub-seeded RNG and lands in its own slot, so the worker count never
// changes the result.
func (s *Scorer) buildForest(data [][]float64, sampleSize, maxDepth int) []*treeNode {
	master := rand.New(rand.NewSource(s.cfg.Seed))
	seeds := make([]int64, s.cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	workers := s.cfg.Workers
	if workers > s.cfg.Trees {
		workers = s.cfg.Trees
	}

	trees := make([]*treeNode, s.cfg.Trees)
	jobs := make(chan int, workers*4)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(seeds[i]))
				idx := make([]int, sampleSize)
				for j := range idx {
					idx[j] = rng.Intn(len(data))
				}
				trees[i] = buildTree(data, idx, 0, maxDepth, rng)
			}
		}()
	}

	for i := 0; i < s.cfg.Trees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return trees
}
