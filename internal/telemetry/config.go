package telemetry

import "os"

const defaultArtifactsDir = ".assistant"

// ObserveEnabled reports whether JSONL emission is on (SA_OBSERVE_JSON=1).
func ObserveEnabled() bool {
	return os.Getenv("SA_OBSERVE_JSON") == "1"
}

// ArtifactsDir returns the directory events are written to.
// SA_ARTIFACTS_DIR overrides the default of .assistant in the working directory.
func ArtifactsDir() string {
	if v := os.Getenv("SA_ARTIFACTS_DIR"); v != "" {
		return v
	}
	return defaultArtifactsDir
}
