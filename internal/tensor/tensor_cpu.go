package tensor

import (
	"runtime"

	xcpu "golang.org/x/sys/cpu"
)

// CPUFeatures records the host capabilities used for kernel selection.
type CPUFeatures struct {
	HasAVX2   bool
	HasFMA    bool
	HasAVX512 bool
	HasASIMD  bool
	// Wide selects the 8-way unrolled inner loops.
	Wide bool
}

var cpu CPUFeatures

func init() {
	cpu = detectCPU()
}

func detectCPU() CPUFeatures {
	f := CPUFeatures{
		HasAVX2:   xcpu.X86.HasAVX2,
		HasFMA:    xcpu.X86.HasFMA,
		HasAVX512: xcpu.X86.HasAVX512F,
		HasASIMD:  xcpu.ARM64.HasASIMD,
	}
	switch runtime.GOARCH {
	case "amd64":
		f.Wide = f.HasAVX2
	case "arm64":
		f.Wide = f.HasASIMD
	}
	return f
}

// Features returns the detected CPU features.
func Features() CPUFeatures {
	return cpu
}
