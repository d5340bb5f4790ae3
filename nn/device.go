package nn

import (
	"os"
	"strings"
)

// Device identifies the compute target for tensor operations. It is passed
// explicitly wherever a compute target matters; there is no ambient global.
type Device string

const (
	// CPU runs tensor math on the general-purpose processor.
	CPU Device = "cpu"
	// CUDA names an accelerator target. No accelerator engine is wired
	// into this build; consumers must reject it rather than fall back
	// silently.
	CUDA Device = "cuda"
)

// DetectDevice picks the compute target from the HSI_DEVICE environment
// variable. Unset selects the CPU.
func DetectDevice() Device {
	switch strings.ToLower(os.Getenv("HSI_DEVICE")) {
	case string(CUDA):
		return CUDA
	default:
		return CPU
	}
}

// Supported reports whether this build can execute on the device.
func (d Device) Supported() bool { return d == CPU }

func (d Device) String() string { return string(d) }
