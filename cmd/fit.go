package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ferntree/app"
	"github.com/kilianp07/ferntree/config"
	"github.com/kilianp07/ferntree/core/regression"
	"github.com/kilianp07/ferntree/core/thermal"
	"github.com/kilianp07/ferntree/infra/logger"
)

var (
	fitBuilding   thermal.Building
	fitRegression regression.Config
	fitExpand     bool
	fitFromConfig bool
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Print the 3R2C parameters estimated for a building",
	RunE:  fit,
}

func init() {
	f := fitCmd.Flags()
	f.IntVar(&fitBuilding.YearOfConstruction, "yoc", 1980, "year of construction")
	f.Float64Var(&fitBuilding.HeatedArea, "area", 150, "heated area [m²]")
	f.IntVar(&fitBuilding.Renovation, "renovation", 1, "renovation variant: 1 none, 2 usual, 3 advanced")
	f.Float64Var(&fitBuilding.AnnualHeatDemand, "annual-demand", 0, "known annual heat demand [kWh], 0 to estimate")
	f.BoolVar(&fitExpand, "expand", true, "train on the expanded archetype table")
	f.BoolVar(&fitFromConfig, "from-config", false, "read the building and regression settings from --config")
	rootCmd.AddCommand(fitCmd)
}

func fit(cmd *cobra.Command, args []string) error {
	b, rc := fitBuilding, fitRegression
	expand := fitExpand
	rc.Expand = &expand
	if fitFromConfig {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cfg.House.Heating == nil {
			return errNoHeating
		}
		b, rc = cfg.House.Heating.ThermalModel, cfg.Regression
	}
	log := logger.New("fit")
	res, err := app.Fit(rc, b, log)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

var errNoHeating = errors.New("configuration has no house.heating section")
