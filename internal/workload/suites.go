package workload

import "github.com/Nullvora/mabor-bench/internal/model"

// DefaultRegistry returns the registry populated with the built-in suites.
// Each suite runs as a spawned benchmark binary from the built artifact.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("unary", NewProcSuite("unary", []string{"tanh", "erf", "log"}))
	r.Register("binary", NewProcSuite("binary", []string{"add", "mul", "div"}))
	r.Register("matmul", NewProcSuite("matmul", []string{"512x512x512", "1024x1024x1024", "2048x2048x2048"}))
	r.Register("conv2d", NewProcSuite("conv2d", []string{"3x224x224", "64x56x56"}))
	r.Register("resnet50", NewProcSuite("resnet50", []string{"forward"}))
	return r
}

// DefaultBackends returns the catalog of supported hardware backends.
// GPU-backed targets are hardware-exclusive: concurrent measurements on the
// same accelerator would interfere, so the executor serializes them.
func DefaultBackends() *BackendSet {
	return NewBackendSet(
		model.Backend{ID: "ndarray", Device: "cpu", Dtypes: []string{model.DtypeF32}},
		model.Backend{ID: "candle-cpu", Device: "cpu", Dtypes: []string{model.DtypeF32, model.DtypeF16}},
		model.Backend{ID: "candle-cuda", Device: "gpu", Dtypes: []string{model.DtypeF32, model.DtypeF16}, Exclusive: true},
		model.Backend{ID: "wgpu", Device: "gpu", Dtypes: []string{model.DtypeF32, model.DtypeF16}, Exclusive: true},
		model.Backend{ID: "wgpu-fusion", Device: "gpu", Dtypes: []string{model.DtypeF32, model.DtypeF16}, Exclusive: true},
		model.Backend{ID: "cuda", Device: "gpu", Dtypes: []string{model.DtypeF32, model.DtypeF16, model.DtypeBF16}, Exclusive: true},
		model.Backend{ID: "cuda-fusion", Device: "gpu", Dtypes: []string{model.DtypeF32, model.DtypeF16, model.DtypeBF16}, Exclusive: true},
	)
}
