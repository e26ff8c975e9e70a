package embedding

import "fmt"

// ONNXOptions configures an ONNXEmbedder.
type ONNXOptions struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
	// UseGPU appends the CUDA execution provider. Vectors are the same either way.
	UseGPU bool
}

func (o ONNXOptions) validate() error {
	if o.ModelPath == "" {
		return fmt.Errorf("onnx embedder: model_path is required")
	}
	if o.Dimensions <= 0 || o.MaxTokens <= 0 {
		return fmt.Errorf("onnx embedder: dimensions and max_tokens must be positive")
	}
	return nil
}
