package predictor

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config selects and parameterizes a model variant in YAML. Selection is
// explicit configuration, never inspection of the model object at runtime.
type Config struct {
	Type       string                 `yaml:"type"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

// ConfigFile is the top-level YAML structure.
type ConfigFile struct {
	Predictor Config `yaml:"predictor"`
}

// LoadConfig reads the model selection from a YAML file. A missing file
// selects the momentum baseline.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{Type: "momentum"}, nil
	}
	if err != nil {
		return Config{}, err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("predictor config %s: %w", path, err)
	}
	if file.Predictor.Type == "" {
		file.Predictor.Type = "momentum"
	}
	return file.Predictor, nil
}

// Build constructs the configured model variant.
func Build(cfg Config) (Predictor, error) {
	switch cfg.Type {
	case "momentum":
		return NewMomentum(paramInt(cfg.Parameters, "lookback"), paramFloat(cfg.Parameters, "hold_band_pct")), nil
	case "onnx":
		if err := InitializeRuntime(paramString(cfg.Parameters, "library_path")); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		return NewONNX(paramString(cfg.Parameters, "model_path"), paramInt(cfg.Parameters, "window"))
	case "bridge":
		url := paramString(cfg.Parameters, "base_url")
		if url == "" {
			return nil, fmt.Errorf("bridge predictor requires base_url")
		}
		timeout := time.Duration(paramInt(cfg.Parameters, "timeout_seconds")) * time.Second
		return NewBridge(url, timeout), nil
	default:
		return nil, fmt.Errorf("unknown predictor type %q", cfg.Type)
	}
}

func paramString(p map[string]interface{}, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func paramInt(p map[string]interface{}, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func paramFloat(p map[string]interface{}, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
