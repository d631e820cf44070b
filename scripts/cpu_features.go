// cpu_features prints the CPU features the tensor kernels dispatch on, as JSON.
//
//	go run ./scripts
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-json"

	"github.com/samcharles93/hinge/internal/tensor"
)

type output struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Workers   int             `json:"workers"`
	Features  map[string]bool `json:"features"`
}

func main() {
	f := tensor.Features()
	out := output{
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Workers:   tensor.Workers(),
		Features: map[string]bool{
			"AVX2":   f.HasAVX2,
			"FMA":    f.HasFMA,
			"AVX512": f.HasAVX512,
			"ASIMD":  f.HasASIMD,
			"wide":   f.Wide,
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
