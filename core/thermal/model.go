package thermal

import (
	"math"
	"time"

	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/core/regression"
)

// envelopeMargin is the gap enforced when the envelope would end up warmer
// than the interior. The model has no physical bound here; this keeps the
// state plausible.
const envelopeMargin = 2.0

// Model advances indoor and envelope temperatures one timestep at a time.
type Model struct {
	params   Params
	pGain    float64 // internal gains [kW]
	dt       float64 // timestep [h]
	noiseStd float64
	noise    NoiseSource
	log      logger.Logger
}

// New validates b, estimates its parameters with reg and returns a model
// stepping at timebase.
func New(b Building, timebase time.Duration, reg *regression.Model, noise NoiseSource, log logger.Logger) (*Model, error) {
	p, err := EstimateParams(b, reg)
	if err != nil {
		return nil, err
	}
	log.Infof("3R2C params: Ai=%.2f Ce=%.2f Ci=%.2f Rea=%.2f Ria=%.2f Rie=%.2f annual=%.0f kWh",
		p.Ai, p.Ce, p.Ci, p.Rea, p.Ria, p.Rie, p.AnnualNetHeatDemand)
	return NewWithParams(p, timebase, noise, log)
}

// NewWithParams builds a model from known constants.
func NewWithParams(p Params, timebase time.Duration, noise NoiseSource, log logger.Logger) (*Model, error) {
	if timebase <= 0 {
		return nil, model.NewConfigError("simulation.timebase_seconds", "must be positive")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if noise == nil {
		noise = ZeroNoise{}
	}
	return &Model{
		params:   p,
		pGain:    p.HeatedArea * InternalGainPerArea,
		dt:       timebase.Hours(),
		noiseStd: 1 / math.Sqrt(timebase.Seconds()),
		noise:    noise,
		log:      log,
	}, nil
}

// Params returns the model constants.
func (m *Model) Params() Params { return m.params }

// InternalGain returns the constant internal heat gain [kW].
func (m *Model) InternalGain() float64 { return m.pGain }

// Step returns the indoor and envelope temperatures [K] after one timestep
// given the ambient temperature [K], solar irradiance [kW/m²] and thermal
// heating power [kW]. The envelope is kept below the interior.
func (m *Model) Step(tIn, tEn, tAmb, pSolar, pHeat float64) (float64, float64) {
	p := m.params
	dTi := (1/(p.Ci*p.Rie)*(tEn-tIn)+
		1/(p.Ci*p.Ria)*(tAmb-tIn)+
		p.Ai/p.Ci*pSolar+
		1/p.Ci*(pHeat+m.pGain))*m.dt +
		m.noise.NormFloat64()*m.noiseStd
	dTe := (1/(p.Ce*p.Rie)*(tIn-tEn)+
		1/(p.Ce*p.Rea)*(tAmb-tEn))*m.dt +
		m.noise.NormFloat64()*m.noiseStd

	tIn += dTi
	tEn += dTe
	if tEn > tIn {
		tEn = tIn - envelopeMargin
	}
	return tIn, tEn
}
