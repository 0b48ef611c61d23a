package config

import (
	"time"
)

// Defaults match the reference deployment: four LOD levels at
// 25/50/75/100 percent of source complexity.
var (
	levelFidelities = []float32{0.25, 0.5, 0.75, 1.0}

	maxUploadSize int64 = 600 << 20 // 600 MiB

	allowedExtensions = []string{"glb", "gltf"}

	gltfpackBinary = "gltfpack"

	// one external invocation must finish within this window
	produceTimeout = 5 * time.Minute

	// viewer-side per-variant download timeout
	fetchTimeout = 60 * time.Second

	// delay between successive quality levels so the swap is perceptible
	levelSwapDelay = 500 * time.Millisecond

	maxConcurrentIntakes = 2
)

func LevelCount() int {
	return len(levelFidelities)
}

func LevelFidelities() []float32 {
	out := make([]float32, len(levelFidelities))
	copy(out, levelFidelities)
	return out
}

func SetLevelFidelities(f []float32) {
	if len(f) > 0 {
		levelFidelities = f
	}
}

func MaxUploadSize() int64 { return maxUploadSize }

func SetMaxUploadSize(size int64) {
	if size > 0 {
		maxUploadSize = size
	}
}

func AllowedExtensions() []string { return allowedExtensions }

func GltfpackBinary() string { return gltfpackBinary }

func SetGltfpackBinary(path string) {
	if path != "" {
		gltfpackBinary = path
	}
}

func ProduceTimeout() time.Duration { return produceTimeout }

func FetchTimeout() time.Duration { return fetchTimeout }

func SetFetchTimeout(d time.Duration) {
	if d > 0 {
		fetchTimeout = d
	}
}

func LevelSwapDelay() time.Duration { return levelSwapDelay }

func SetLevelSwapDelay(d time.Duration) {
	if d >= 0 {
		levelSwapDelay = d
	}
}

func MaxConcurrentIntakes() int { return maxConcurrentIntakes }

func SetMaxConcurrentIntakes(n int) {
	if n > 0 {
		maxConcurrentIntakes = n
	}
}
