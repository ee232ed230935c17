package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/vineyard-health/internal/config"
	"github.com/ironsheep/vineyard-health/internal/health"
	"github.com/ironsheep/vineyard-health/internal/pipeline"
)

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var (
		configPath string
		asJSON     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the vineyard health analysis described by a config file",
		Long: `Load the NIR and RGB images named in the config file, compute NDVI, write the
grid image and print the vineyard health data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := newLogger(cmd.ErrOrStderr(), flags, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}

			opts := []pipeline.Option{pipeline.WithLogger(log)}
			progress := &progressRenderer{w: cmd.ErrOrStderr()}
			if !noProgress {
				opts = append(opts, pipeline.WithProgress(progress.update))
			}

			res, err := pipeline.Run(cmd.Context(), cfg, opts...)
			progress.finish()
			if err != nil {
				log.Error().Err(err).Msg("analysis failed")
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printReport(cmd.OutOrStdout(), res.Stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not render the progress bar")

	return cmd
}

// progressRenderer draws the health scan progress. The bar is created on the
// first update, once the number of rows is known.
type progressRenderer struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *progressRenderer) update(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Extracting vineyard health data"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progressRenderer) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func printReport(w io.Writer, s *health.Stats) {
	fmt.Fprintln(w, "_______Vineyard health data_______")
	fmt.Fprintln(w, "The total vineyard pixels are:", s.TotalVineyardPixels)
	fmt.Fprintln(w, "The total plant pixels are:", s.TotalPlantPixels)
	fmt.Fprintln(w, "The vine area (in hectares) is:", s.VineArea)
	fmt.Fprintln(w, "The NDVI mean healthiness value is:", s.MeanHealth)
	fmt.Fprintln(w, "The NDVI mean value in percentage is:", s.MeanHealthPercentage)
}
