// Package config holds build-time constants and VM tuning knobs shared
// across the compiler and runtime.
package config

// Version is the current foxlox version.
// Set at build time by the release script via -ldflags, or by editing this file.
var Version = "0.1.0"

const SourceFileExt = ".fox"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".fox"}

// TrimSourceExt removes the recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates if the program is running under the test harness.
// Set once at startup; gates things like deterministic GC-stress behavior.
var IsTestMode = false

// VM tuning constants (§3.9, §4.8, §3.8 of the design).
const (
	StackMax             = 1024
	CallTraceMax         = 256
	FirstGCHeapSize      = 1024 * 1024
	GCHeapGrowFactor     = 2
	StringPoolMaxLoad    = 0.75
	HashTableStartBucket = 1 << 3
)

// MaxParams is the maximum number of parameters a function may declare.
const MaxParams = 255

// ModuleMagic is the 8-byte header every serialized chunk begins with.
var ModuleMagic = [8]byte{0x04, 0x02, 'F', 'O', 'X', 'L', 'O', 'X'}
