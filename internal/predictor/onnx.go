package predictor

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"fxtrader/internal/marketdata"
)

// ONNX runs an exported model through the onnxruntime shared library. The
// model takes a [1, window, 5] OHLCV+news feature tensor and yields
// [1, 3] class scores ordered sell, hold, buy.
type ONNX struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	window  int
}

// InitializeRuntime points onnxruntime_go at the platform shared library and
// initializes the environment. Call once before constructing ONNX models.
func InitializeRuntime(libPath string) error {
	if libPath == "" {
		switch runtime.GOOS {
		case "windows":
			libPath = "onnxruntime.dll"
		case "darwin":
			libPath = "libonnxruntime.dylib"
		default:
			libPath = "/usr/lib/libonnxruntime.so"
		}
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

func NewONNX(modelPath string, window int) (*ONNX, error) {
	if window <= 0 {
		window = 100
	}

	inputShape := ort.NewShape(1, int64(window), 5)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, window*5))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &ONNX{session: session, input: inputTensor, output: outputTensor, window: window}, nil
}

func (o *ONNX) Name() string { return "onnx" }

func (o *ONNX) Predict(bars []marketdata.Bar, newsScore float64) (Prediction, error) {
	if len(bars) < o.window {
		return Prediction{}, fmt.Errorf("onnx: window has %d bars, need %d", len(bars), o.window)
	}

	data := o.input.GetData()
	tail := bars[len(bars)-o.window:]
	for i, b := range tail {
		base := i * 5
		data[base+0] = float32(b.Open)
		data[base+1] = float32(b.High)
		data[base+2] = float32(b.Low)
		data[base+3] = float32(b.Close)
		data[base+4] = float32(b.Volume)
	}

	if err := o.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("onnx: inference: %w", err)
	}

	scores := o.output.GetData() // sell, hold, buy
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	p := Prediction{Confidence: float64(scores[best]) * 100}
	if p.Confidence > 100 {
		p.Confidence = 100
	}
	switch best {
	case 0:
		p.Signal = SignalSell
		p.PredictedChangePct = -float64(scores[best])
	case 2:
		p.Signal = SignalBuy
		p.PredictedChangePct = float64(scores[best])
	default:
		p.Signal = SignalHold
	}
	// News score nudges a marginal hold, never overrides a hard call.
	if p.Signal == SignalHold && newsScore != 0 {
		if newsScore > 0.5 {
			p.Signal = SignalBuy
		} else if newsScore < -0.5 {
			p.Signal = SignalSell
		}
	}
	return p, nil
}

func (o *ONNX) Close() {
	if o.session != nil {
		o.session.Destroy()
	}
	if o.input != nil {
		o.input.Destroy()
	}
	if o.output != nil {
		o.output.Destroy()
	}
}
