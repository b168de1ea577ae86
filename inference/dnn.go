package inference

import (
	"encoding/binary"
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/GalyaZalesskaya/model-api/tensors"
)

// DNNConfig configures an OpenCV DNN backed adapter.
type DNNConfig struct {
	// ModelPath is the path to the model file (ONNX, Caffe, TensorFlow...).
	ModelPath string `json:"model_path" yaml:"model_path"`
	// ConfigPath is an optional framework config file (e.g. .pbtxt).
	ConfigPath string `json:"config_path" yaml:"config_path"`
	// Input describes the single model input.
	Input TensorInfo `json:"input" yaml:"input"`
	// Outputs describe every output layer to fetch, with static shapes.
	Outputs []TensorInfo `json:"outputs" yaml:"outputs"`
}

// DNNAdapter is an Adapter backed by gocv's OpenCV DNN module.
type DNNAdapter struct {
	net  gocv.Net
	info ModelInfo
	mu   sync.Mutex
}

// NewDNNAdapter loads a model through gocv.ReadNet and targets the CPU.
func NewDNNAdapter(cfg DNNConfig) (*DNNAdapter, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, errors.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if len(cfg.Outputs) == 0 {
		return nil, errors.New("dnn config needs at least one output")
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, errors.Errorf("failed to load model: %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &DNNAdapter{
		net: net,
		info: ModelInfo{
			Inputs:  []TensorInfo{cfg.Input},
			Outputs: cfg.Outputs,
		},
	}, nil
}

// Info implements Adapter.
func (d *DNNAdapter) Info() ModelInfo { return d.info }

// Infer implements Adapter. Output buffers are copied out of the forward
// pass Mats, so the returned views stay valid until the caller drops them.
func (d *DNNAdapter) Infer(input []float32) (tensors.Outputs, error) {
	in := d.info.Inputs[0]
	if int64(len(input)) != in.Elements() {
		return nil, errors.Errorf("input holds %d floats, model expects %d", len(input), in.Elements())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sizes := make([]int, len(in.Shape))
	for i, s := range in.Shape {
		sizes[i] = int(s)
	}
	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, floatsToBytes(input))
	if err != nil {
		return nil, errors.Wrap(err, "creating input blob")
	}
	defer blob.Close()

	d.net.SetInput(blob, in.Name)

	names := make([]string, len(d.info.Outputs))
	for i, o := range d.info.Outputs {
		names[i] = o.Name
	}
	mats := d.net.ForwardLayers(names)

	result := make(tensors.Outputs, len(mats))
	for i, m := range mats {
		data, err := m.DataPtrFloat32()
		if err != nil {
			closeMats(mats[i:])
			return nil, errors.Wrapf(err, "reading output %q", names[i])
		}
		owned := make([]float32, len(data))
		copy(owned, data)
		m.Close()

		view, err := tensors.NewView(d.info.Outputs[i].Shape, owned)
		if err != nil {
			closeMats(mats[i+1:])
			return nil, errors.Wrapf(err, "wrapping output %q", names[i])
		}
		result[names[i]] = view
	}
	return result, nil
}

// Close implements Adapter.
func (d *DNNAdapter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.net.Empty() {
		return d.net.Close()
	}
	return nil
}

func closeMats(mats []gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}

func floatsToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
