package chembl

import (
	"time"

	apperrors "chemhits/internal/errors"
)

// DefaultBaseURL is the public ChEMBL web services root
const DefaultBaseURL = "https://www.ebi.ac.uk/chembl/api/data"

// ClientConfig holds configuration for the ChEMBL REST supplier
type ClientConfig struct {
	BaseURL           string        `json:"base_url"`
	Timeout           time.Duration `json:"timeout"`
	PageSize          int           `json:"page_size"`           // records per request, ChEMBL caps at 1000
	RequestsPerSecond float64       `json:"requests_per_second"` // shared across pages
	UserAgent         string        `json:"user_agent"`
}

// DefaultClientConfig returns defaults suitable for the public API
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           30 * time.Second,
		PageSize:          100,
		RequestsPerSecond: 5,
		UserAgent:         "chemhits/1.0",
	}
}

// Validate checks if the configuration is usable
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return apperrors.ConfigInvalid("chembl base url is required")
	}
	if c.Timeout <= 0 {
		return apperrors.ConfigInvalid("chembl timeout must be positive")
	}
	if c.PageSize <= 0 || c.PageSize > 1000 {
		return apperrors.ConfigInvalid("chembl page size must be between 1 and 1000")
	}
	if c.RequestsPerSecond <= 0 {
		return apperrors.ConfigInvalid("chembl request rate must be positive")
	}
	return nil
}
