package simd

import (
	"os"
	"runtime"
	"strings"
)

// EnvOverride names the environment variable that forces a kernel ISA.
const EnvOverride = "TRUTHBITS_SIMD"

// ISA represents a SIMD instruction set architecture.
type ISA uint8

const (
	// Generic represents pure Go scalar loops.
	Generic ISA = iota
	// NEON represents ARM64 NEON (ASIMD, vector CNT).
	NEON
	// SVE2 represents ARM64 SVE2.
	SVE2
	// AVX2 represents x86-64 AVX2 with hardware POPCNT.
	AVX2
	// AVX512 represents x86-64 AVX-512 with hardware POPCNT.
	AVX512
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case SVE2:
		return "sve2"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "sve2":
		return SVE2, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Package-level state, set once by the platform init.
var (
	activeISA   ISA
	hasOverride bool

	hasASIMD    bool // ARM64 NEON
	hasSVE2     bool // ARM64 SVE2
	hasPOPCNT   bool // x86-64 POPCNT
	hasAVX2     bool // x86-64 AVX2
	hasAVX512F  bool // x86-64 AVX-512 Foundation
	hasAVX512BW bool // x86-64 AVX-512 Byte/Word
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	activeISA = selectBestISA()

	if override := os.Getenv(EnvOverride); override != "" {
		if isa, ok := ParseISA(override); ok && isISAAvailable(isa) {
			hasOverride = true
			activeISA = isa
		}
	}

	useKernels(activeISA)
}

// isISAAvailable checks if an ISA is supported on this CPU.
func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case SVE2:
		return hasSVE2
	case AVX2:
		return hasAVX2 && hasPOPCNT
	case AVX512:
		return hasAVX512F && hasAVX512BW && hasPOPCNT
	default:
		return false
	}
}

// selectBestISA chooses the optimal ISA for the current platform.
func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "arm64":
		// Apple's SVE2 is not native; stay on NEON there.
		if hasSVE2 && runtime.GOOS != "darwin" {
			return SVE2
		}
		if hasASIMD {
			return NEON
		}
	case "amd64":
		if isISAAvailable(AVX512) {
			return AVX512
		}
		if isISAAvailable(AVX2) {
			return AVX2
		}
	}
	return Generic
}

// useKernels installs the kernel set for isa.
func useKernels(isa ISA) {
	if isa == Generic {
		kernelFuse2 = fuse2Generic
		kernelFuse3 = fuse3Generic
		kernelCount2 = count2Generic
		kernelCount3 = count3Generic
		kernelPopcount = popcountGeneric
		return
	}
	kernelFuse2 = fuse2Unrolled
	kernelFuse3 = fuse3Unrolled
	kernelCount2 = count2Unrolled
	kernelCount3 = count3Unrolled
	kernelPopcount = popcountUnrolled
}

// ActiveISA returns the currently active ISA.
func ActiveISA() ISA {
	return activeISA
}

// IsOverridden returns true if TRUTHBITS_SIMD selected the ISA.
func IsOverridden() bool {
	return hasOverride
}

// Features reports the detected CPU flags relevant to the kernels.
func Features() map[string]bool {
	switch runtime.GOARCH {
	case "arm64":
		return map[string]bool{"asimd": hasASIMD, "sve2": hasSVE2}
	case "amd64":
		return map[string]bool{
			"popcnt":   hasPOPCNT,
			"avx2":     hasAVX2,
			"avx512f":  hasAVX512F,
			"avx512bw": hasAVX512BW,
		}
	default:
		return map[string]bool{}
	}
}
