package excel

import (
	apperrors "chemhits/internal/errors"
)

// FileConfig holds configuration for the file supplier
type FileConfig struct {
	FilePath string `json:"file_path"`
	Sheet    string `json:"sheet"` // xlsx only; empty selects the first sheet
}

// Validate checks if the configuration is usable
func (c FileConfig) Validate() error {
	if c.FilePath == "" {
		return apperrors.ConfigInvalid("input file path is required")
	}
	return nil
}
