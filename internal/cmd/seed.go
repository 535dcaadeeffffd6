package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bmacd/skyscore/internal/aircraft"
	"github.com/bmacd/skyscore/internal/runway"
	"github.com/bmacd/skyscore/internal/weather"
	"github.com/bmacd/skyscore/pkg/logger"
)

// seedFile is the TOML layout for reference data
type seedFile struct {
	Runways  []runway.Runway        `toml:"runways"`
	Aircraft []aircraft.Performance `toml:"aircraft"`
	METAR    []weather.Observation  `toml:"metar"`
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load runway, aircraft and METAR reference data from a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			var seed seedFile
			if _, err := toml.DecodeFile(file, &seed); err != nil {
				return fmt.Errorf("failed to load seed file %s: %w", file, err)
			}

			for i := range seed.Runways {
				if err := a.refs.StoreRunway(&seed.Runways[i]); err != nil {
					return err
				}
			}
			for i := range seed.Aircraft {
				if err := a.refs.StorePerformance(&seed.Aircraft[i]); err != nil {
					return err
				}
			}
			for i := range seed.METAR {
				if err := a.refs.StoreObservation(&seed.METAR[i]); err != nil {
					return err
				}
			}

			a.logger.Info("Reference data loaded",
				logger.String("file", file),
				logger.Int("runways", len(seed.Runways)),
				logger.Int("aircraft", len(seed.Aircraft)),
				logger.Int("metar", len(seed.METAR)))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "reference.toml", "reference data file")
	_ = cmd.MarkFlagFilename("file", "toml")
	return cmd
}
