package inference

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/GalyaZalesskaya/model-api/tensors"
)

// SessionConfig configures an ONNX Runtime backed adapter.
type SessionConfig struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// LibraryPath optionally points at the onnxruntime shared library.
	// Empty leaves the process-wide default untouched.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// Input describes the single model input.
	Input TensorInfo `json:"input" yaml:"input"`
	// Outputs describe every model output, with static shapes.
	Outputs []TensorInfo `json:"outputs" yaml:"outputs"`
}

// Session is an Adapter backed by ONNX Runtime. It pre-allocates the input
// and output tensors once and reuses them across calls, so a Session must
// not be shared by concurrent Infer calls.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
	info    ModelInfo
}

// NewSession creates an ONNX Runtime session for the described model.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("session config needs a model path")
	}
	if len(cfg.Outputs) == 0 {
		return nil, errors.New("session config needs at least one output")
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initializing onnxruntime environment")
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.Input.Shape...))
	if err != nil {
		return nil, errors.Wrapf(err, "creating input tensor %q", cfg.Input.Name)
	}

	outputs := make([]*ort.Tensor[float32], 0, len(cfg.Outputs))
	outputNames := make([]string, 0, len(cfg.Outputs))
	destroyAll := func() {
		input.Destroy()
		for _, t := range outputs {
			t.Destroy()
		}
	}
	for _, out := range cfg.Outputs {
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(out.Shape...))
		if err != nil {
			destroyAll()
			return nil, errors.Wrapf(err, "creating output tensor %q", out.Name)
		}
		outputs = append(outputs, t)
		outputNames = append(outputNames, out.Name)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		destroyAll()
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()

	outputTensors := make([]ort.ArbitraryTensor, len(outputs))
	for i, t := range outputs {
		outputTensors[i] = t
	}
	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.Input.Name},
		outputNames,
		[]ort.ArbitraryTensor{input},
		outputTensors,
		options,
	)
	if err != nil {
		destroyAll()
		return nil, errors.Wrapf(err, "creating onnxruntime session for %s", cfg.ModelPath)
	}

	return &Session{
		session: session,
		input:   input,
		outputs: outputs,
		info: ModelInfo{
			Inputs:  []TensorInfo{cfg.Input},
			Outputs: cfg.Outputs,
		},
	}, nil
}

// Info implements Adapter.
func (s *Session) Info() ModelInfo { return s.info }

// Infer implements Adapter. The returned views alias the session's output
// tensors and are invalidated by the next Infer or Close.
func (s *Session) Infer(input []float32) (tensors.Outputs, error) {
	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, errors.Errorf("input holds %d floats, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "running onnxruntime session")
	}

	result := make(tensors.Outputs, len(s.outputs))
	for i, t := range s.outputs {
		view, err := tensors.NewView(s.info.Outputs[i].Shape, t.GetData())
		if err != nil {
			return nil, errors.Wrapf(err, "wrapping output %q", s.info.Outputs[i].Name)
		}
		result[s.info.Outputs[i].Name] = view
	}
	return result, nil
}

// Close implements Adapter.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	for _, t := range s.outputs {
		t.Destroy()
	}
	s.outputs = nil
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}
