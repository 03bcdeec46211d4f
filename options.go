package forecastbridge

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// HorizonOptions is the rule used when a forecast is asked for without a horizon.
type HorizonOptions struct {
	// NonSeasonal is the horizon of series with frequency 1.
	NonSeasonal int `json:"non_seasonal" yaml:"non_seasonal"`

	// SeasonalPeriods is the number of whole periods forecast for seasonal series.
	SeasonalPeriods int `json:"seasonal_periods" yaml:"seasonal_periods"`
}

// For returns the default horizon of a series with the given frequency.
func (h HorizonOptions) For(frequency float64) int {
	if frequency > 1 {
		return h.SeasonalPeriods * int(math.Round(frequency))
	}
	return h.NonSeasonal
}

// Options configures a Bridge.
type Options struct {
	// Levels are the prediction interval levels used when a forecast call sets none.
	Levels []float64 `json:"levels" yaml:"levels"`

	Horizon HorizonOptions `json:"horizon" yaml:"horizon"`

	// LogLevel is applied to Logger by LoadOptions.
	LogLevel string `json:"log_level" yaml:"log_level"`

	Logger *logrus.Logger `json:"-" yaml:"-"`
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// NewDefaultOptions returns 80 and 95 percent intervals, a horizon of two periods or ten
// steps, and a logger at warn level.
func NewDefaultOptions() *Options {
	return &Options{
		Levels: []float64{80, 95},
		Horizon: HorizonOptions{
			NonSeasonal:     10,
			SeasonalPeriods: 2,
		},
		LogLevel: logrus.WarnLevel.String(),
		Logger:   newLogger(),
	}
}

// LoadOptions reads yaml over the defaults. Keys that are absent keep their default value.
func LoadOptions(r io.Reader) (*Options, error) {
	opt := NewDefaultOptions()
	if err := yaml.NewDecoder(r).Decode(opt); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to decode options, %w: %w", errdefs.ErrInvalidArgument, err)
	}
	lvl, err := logrus.ParseLevel(opt.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("bad log level, %w: %w", errdefs.ErrInvalidArgument, err)
	}
	opt.Logger.SetLevel(lvl)

	if opt.Horizon.NonSeasonal <= 0 || opt.Horizon.SeasonalPeriods <= 0 {
		return nil, fmt.Errorf("horizon defaults must be positive, %w", errdefs.ErrOutOfRange)
	}
	if _, err := checkLevels(opt.Levels); err != nil {
		return nil, err
	}
	return opt, nil
}
