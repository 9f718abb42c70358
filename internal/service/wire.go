package service

import (
	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/model"
)

// ForestConfig maps the MODEL_* settings onto forest hyperparameters.
func ForestConfig(cfg config.ModelConfig) model.ForestConfig {
	return model.ForestConfig{
		Trees:           cfg.Trees,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		MinSamplesLeaf:  cfg.MinSamplesLeaf,
		MaxFeatures:     cfg.MaxFeatures,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
	}
}

// NewEngine builds a forecast engine backed by a random forest configured from cfg.
func NewEngine(cfg *config.Config) *forecast.Engine {
	return forecast.NewEngine(forecast.Options{
		Trainer: model.NewForestTrainer(ForestConfig(cfg.Model)),
		CVFolds: cfg.Model.CVFolds,
		Workers: cfg.Forecast.Workers,
	})
}
