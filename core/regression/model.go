package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ferntree/core/logger"
)

const (
	// DefaultIterations is the gradient descent budget.
	DefaultIterations = 100
	// DefaultLearningRate is the gradient descent step size.
	DefaultLearningRate = 0.1
	// convergenceTolerance stops training when the loss changes less than this
	// between consecutive iterations.
	convergenceTolerance = 1e-6
	// meanBlend is the weight of the training-set output mean in a prediction.
	meanBlend = 0.8
)

// ErrNotTrained is returned by Predict before Train has been called.
var ErrNotTrained = errors.New("regression model not trained")

// Config controls preprocessing and training.
type Config struct {
	// Expand trains on the interpolated archetype table. Unset means true.
	Expand       *bool   `json:"expand"`
	Seed         uint64  `json:"seed"`
	Iterations   int     `json:"iterations"`
	LearningRate float64 `json:"learning_rate"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Expand == nil {
		expand := true
		c.Expand = &expand
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
}

// Expanded reports whether training uses the expanded table.
func (c Config) Expanded() bool { return c.Expand == nil || *c.Expand }

// Model is a multi-output linear regression.
type Model struct {
	cfg    Config
	x      *mat.Dense // normalized features with leading bias column
	y      *mat.Dense
	means  []float64
	stds   []float64
	yMeans []float64
	theta  *mat.Dense
	losses []float64
	log    logger.Logger
}

// New preprocesses ds (optional expansion, feature scaling, bias column).
func New(ds Dataset, cfg Config, log logger.Logger) (*Model, error) {
	cfg.SetDefaults()
	if ds.Len() == 0 {
		return nil, fmt.Errorf("empty dataset")
	}
	if cfg.Expanded() {
		var err error
		ds, err = Expand(ds)
		if err != nil {
			return nil, err
		}
	}
	n := ds.Len()
	features := len(ds.X[0])
	outputs := len(ds.Y[0])

	raw := mat.NewDense(n, features, nil)
	y := mat.NewDense(n, outputs, nil)
	for i := 0; i < n; i++ {
		raw.SetRow(i, ds.X[i])
		y.SetRow(i, ds.Y[i])
	}

	m := &Model{cfg: cfg, y: y, log: log}
	m.means = make([]float64, features)
	m.stds = make([]float64, features)
	x := mat.NewDense(n, features+1, nil)
	for j := 0; j < features; j++ {
		col := mat.Col(nil, j, raw)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			log.Warnf("feature %d is constant in the training set", j)
			std = 1
		}
		m.means[j], m.stds[j] = mean, std
		for i, v := range col {
			x.Set(i, j+1, (v-mean)/std)
		}
	}
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	m.x = x

	m.yMeans = make([]float64, outputs)
	for j := 0; j < outputs; j++ {
		m.yMeans[j] = stat.Mean(mat.Col(nil, j, y), nil)
	}
	return m, nil
}

// NewArchetypeModel builds and trains a model on the embedded archetype table.
func NewArchetypeModel(cfg Config, log logger.Logger) (*Model, error) {
	ds, err := ArchetypeDataset()
	if err != nil {
		return nil, err
	}
	m, err := New(ds, cfg, log)
	if err != nil {
		return nil, err
	}
	m.Train()
	return m, nil
}

// Train runs batch gradient descent on half the mean squared error. Weights are
// initialized from a normal distribution seeded with the configured seed, so
// training is deterministic.
func (m *Model) Train() {
	n, p := m.x.Dims()
	_, k := m.y.Dims()
	rng := rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed))
	theta := mat.NewDense(p, k, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < k; j++ {
			theta.Set(i, j, rng.NormFloat64())
		}
	}

	m.losses = m.losses[:0]
	var pred, resid, grad mat.Dense
	for it := 0; it < m.cfg.Iterations; it++ {
		pred.Mul(m.x, theta)
		resid.Sub(&pred, m.y)
		loss := sumSquares(&resid) / float64(n*k) / 2
		m.losses = append(m.losses, loss)

		grad.Mul(m.x.T(), &resid)
		grad.Scale(m.cfg.LearningRate/float64(n), &grad)
		theta.Sub(theta, &grad)

		if it > 0 && math.Abs(loss-m.losses[it-1]) < convergenceTolerance {
			m.log.Debugf("regression converged at iteration %d", it)
			break
		}
	}
	m.theta = theta
	m.log.Debugf("regression final loss %.4f after %d iterations", m.losses[len(m.losses)-1], len(m.losses))
}

// Losses returns the recorded loss per iteration.
func (m *Model) Losses() []float64 {
	out := make([]float64, len(m.losses))
	copy(out, m.losses)
	return out
}

// Predict returns the outputs for one feature row. The raw prediction is made
// non-negative and blended 20/80 with the training-set output mean.
func (m *Model) Predict(features []float64) ([]float64, error) {
	if m.theta == nil {
		return nil, ErrNotTrained
	}
	if len(features) != len(m.means) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.means), len(features))
	}
	row := make([]float64, len(features)+1)
	row[0] = 1
	for j, v := range features {
		row[j+1] = (v - m.means[j]) / m.stds[j]
	}
	raw := m.raw(row)
	out := make([]float64, len(raw))
	for j, v := range raw {
		out[j] = (1-meanBlend)*math.Abs(v) + meanBlend*m.yMeans[j]
	}
	return out, nil
}

func (m *Model) raw(row []float64) []float64 {
	var y mat.VecDense
	y.MulVec(m.theta.T(), mat.NewVecDense(len(row), row))
	return y.RawVector().Data
}

func sumSquares(a mat.Matrix) float64 {
	r, c := a.Dims()
	var s float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			s += v * v
		}
	}
	return s
}
