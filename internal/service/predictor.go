package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrModelUnavailable is returned for every prediction once the model artifact
// failed to load. It signals a configuration problem an operator must fix, not
// a per-request failure.
var ErrModelUnavailable = errors.New("valuation model unavailable")

// modelArtifact is the serialized regression model: an intercept plus one
// coefficient per numeric column and one coefficient table per categorical
// column. The model predicts on the log1p scale; callers invert with expm1.
type modelArtifact struct {
	SchemaVersion   int                           `json:"schema_version"`
	TargetTransform string                        `json:"target_transform"`
	Columns         []string                      `json:"columns"`
	Intercept       float64                       `json:"intercept"`
	Numeric         map[string]float64            `json:"numeric"`
	Categorical     map[string]map[string]float64 `json:"categorical"`
}

// Predictor loads the trained model artifact lazily, exactly once, and serves
// concurrent read-only predictions. A load failure is remembered: every later
// call gets ErrModelUnavailable instead of a retry storm or a crash.
type Predictor struct {
	path   string
	logger *zap.Logger

	once  sync.Once
	model *modelArtifact
	err   error
}

// NewPredictor creates a predictor for the artifact at path. Nothing is read
// until Load or the first Predict.
func NewPredictor(path string, logger *zap.Logger) *Predictor {
	return &Predictor{path: path, logger: logger}
}

// Load forces the artifact to load now. main calls this at startup so a broken
// deployment is visible in the logs immediately; request handling still works
// either way.
func (p *Predictor) Load() error {
	p.once.Do(p.load)
	if p.err != nil {
		return ErrModelUnavailable
	}
	return nil
}

func (p *Predictor) load() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		p.err = fmt.Errorf("read model artifact %s: %w", p.path, err)
		p.logger.Error("failed to load valuation model", zap.String("path", p.path), zap.Error(err))
		return
	}

	var m modelArtifact
	if err := json.Unmarshal(data, &m); err != nil {
		p.err = fmt.Errorf("parse model artifact %s: %w", p.path, err)
		p.logger.Error("valuation model artifact is corrupt", zap.String("path", p.path), zap.Error(err))
		return
	}

	if err := validateArtifact(&m); err != nil {
		p.err = fmt.Errorf("model artifact %s: %w", p.path, err)
		p.logger.Error("valuation model schema mismatch", zap.String("path", p.path), zap.Error(err))
		return
	}

	p.model = &m
	p.logger.Info("valuation model loaded",
		zap.String("path", p.path),
		zap.Int("schema_version", m.SchemaVersion),
		zap.Int("columns", len(m.Columns)),
	)
}

// validateArtifact enforces the feature schema contract: the artifact must
// declare exactly the columns the feature builder emits, in the same order,
// and carry a coefficient table for each one.
func validateArtifact(m *modelArtifact) error {
	if m.TargetTransform != "log1p" {
		return fmt.Errorf("unsupported target transform %q", m.TargetTransform)
	}
	if len(m.Columns) != len(FeatureColumns) {
		return fmt.Errorf("expected %d columns, artifact has %d", len(FeatureColumns), len(m.Columns))
	}
	for i, col := range FeatureColumns {
		if m.Columns[i] != col {
			return fmt.Errorf("column %d: expected %q, artifact has %q", i, col, m.Columns[i])
		}
		_, isNumeric := m.Numeric[col]
		_, isCategorical := m.Categorical[col]
		if !isNumeric && !isCategorical {
			return fmt.Errorf("column %q has no coefficients", col)
		}
	}
	return nil
}

// Predict returns the log1p-scale prediction for one feature row. Unknown
// categorical levels contribute the baseline (zero), matching how the encoder
// treated unseen levels during training.
func (p *Predictor) Predict(row FeatureRow) (float64, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return 0, ErrModelUnavailable
	}

	sum := p.model.Intercept
	for i, col := range row.Columns {
		v := row.Values[i]
		if v.IsNumeric {
			sum += p.model.Numeric[col] * v.Num
			continue
		}
		if levels, ok := p.model.Categorical[col]; ok {
			sum += levels[v.Str]
		}
	}
	return sum, nil
}
