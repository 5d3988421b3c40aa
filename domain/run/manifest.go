package run

import (
	"encoding/json"
	"os"
	"path/filepath"

	"chemhits/domain/core"
)

// ManifestFileName is written next to the hit summary outputs
const ManifestFileName = "run_manifest.json"

// RunManifest records what a hit-calling run consumed and produced
type RunManifest struct {
	RunID          core.RunID             `json:"run_id"`
	TargetID       core.TargetID          `json:"target_id"`
	StandardTypes  []string               `json:"standard_types,omitempty"`
	Source         string                 `json:"source"`
	RawRecords     int                    `json:"raw_records"`
	NormalizedRows int                    `json:"normalized_rows"`
	HitRows        int                    `json:"hit_rows"`
	Compounds      map[string]int         `json:"compounds_by_strength"`
	Policy         map[string]interface{} `json:"policy"`
	Outputs        []string               `json:"outputs,omitempty"`
	Fingerprint    RunFingerprint         `json:"fingerprint"`
	CreatedAt      core.Timestamp         `json:"created_at"`
}

// Validate checks if the manifest is complete
func (m *RunManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if core.ID(m.TargetID).IsEmpty() {
		return core.NewValidationError("run_manifest", "target_id cannot be empty")
	}
	if m.Fingerprint.InputHash == "" {
		return core.NewValidationError("run_manifest", "input_hash cannot be empty")
	}
	if m.Fingerprint.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	return nil
}

// WriteFile stores the manifest as indented JSON in dir and returns the path
func (m *RunManifest) WriteFile(dir string) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
