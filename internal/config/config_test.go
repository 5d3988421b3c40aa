package config

import (
	"testing"
	"time"

	"chemhits/domain/bioactivity"
	"chemhits/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceREST, cfg.Source.Kind)
	assert.Equal(t, 200, cfg.ChEMBL.RecordLimit)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, []string{"csv"}, cfg.Output.Formats)
	assert.Equal(t, "8080", cfg.Server.Port)

	p := cfg.PipelinePolicy()
	assert.Equal(t, 6.0, p.Hits.Cutoff)
	assert.Equal(t, bioactivity.ActivityPIC50, p.Hits.ActivityColumn)
	assert.Equal(t, 7.0, p.Classification.StrongCutoff)
	assert.Equal(t, 1.5, p.Classification.MaxStd)
	assert.Equal(t, []string{"B", "F"}, p.Normalization.AssayTypes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HIT_CUTOFF", "6.5")
	t.Setenv("ACTIVITY_COL", "pKi")
	t.Setenv("MEASUREMENT_TYPES", "IC50, Ki")
	t.Setenv("OUTPUT_FORMATS", "csv,xlsx,html")
	t.Setenv("CHEMBL_TIMEOUT", "5s")
	t.Setenv("CHEMBL_PAGE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	p := cfg.PipelinePolicy()
	assert.Equal(t, 6.5, p.Hits.Cutoff)
	assert.Equal(t, bioactivity.ActivityPKi, p.Hits.ActivityColumn)
	assert.Equal(t, []string{"IC50", "Ki"}, p.Normalization.MeasurementTypes)
	assert.Equal(t, []string{"csv", "xlsx", "html"}, cfg.Output.Formats)

	client := cfg.ClientConfig()
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.Equal(t, 500, client.PageSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"DATA_SOURCE": "mongo"}},
		{"file source without file", map[string]string{"DATA_SOURCE": "file"}},
		{"postgres without url", map[string]string{"DATA_SOURCE": "postgres"}},
		{"unknown format", map[string]string{"OUTPUT_FORMATS": "parquet"}},
		{"bad activity column", map[string]string{"ACTIVITY_COL": "pEC50"}},
		{"inverted range", map[string]string{"MIN_VALUE_NM": "100", "MAX_VALUE_NM": "10"}},
		{"page size too large", map[string]string{"CHEMBL_PAGE_SIZE": "5000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_PostgresSource(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres")
	t.Setenv("CHEMBL_DATABASE_URL", "postgres://chembl@localhost/chembl_35?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Source.Kind = SourceFile
	err = cfg.Validate()
	require.Error(t, err)

	cfg.Source.InputFile = "activities.csv"
	assert.NoError(t, cfg.Validate())

	cfg.Policy.ActivityColumn = "pXYZ"
	assert.Error(t, cfg.Validate())
}
