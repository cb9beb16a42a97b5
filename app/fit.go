package app

import (
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/regression"
	"github.com/kilianp07/ferntree/core/thermal"
)

// FitResult holds the 3R2C parameters estimated for a building.
type FitResult struct {
	Building   thermal.Building `json:"building"`
	Params     thermal.Params   `json:"params"`
	Iterations int              `json:"iterations"`
	FinalLoss  float64          `json:"final_loss"`
}

// Fit trains the archetype regression and estimates the parameters of b.
func Fit(cfg regression.Config, b thermal.Building, log logger.Logger) (FitResult, error) {
	if err := b.Validate(); err != nil {
		return FitResult{}, err
	}
	reg, err := regression.NewArchetypeModel(cfg, log)
	if err != nil {
		return FitResult{}, err
	}
	p, err := thermal.EstimateParams(b, reg)
	if err != nil {
		return FitResult{}, err
	}
	res := FitResult{Building: b, Params: p}
	if losses := reg.Losses(); len(losses) > 0 {
		res.Iterations = len(losses)
		res.FinalLoss = losses[len(losses)-1]
	}
	return res, nil
}
