package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"

	"github.com/go-playground/validator/v10"
)

// DefaultUnitFactors maps a unit string to its multiplier to nanomolar.
// Both the ASCII "uM" and the micro sign spelling are accepted.
func DefaultUnitFactors() map[string]float64 {
	return map[string]float64{
		"nM": 1,
		"uM": 1e3,
		"µM": 1e3,
		"pM": 1e-3,
		"M":  1e9,
	}
}

// NormalizationPolicy configures the normalizer stages
type NormalizationPolicy struct {
	UnitFactors      map[string]float64 `json:"unit_factors" validate:"required,min=1,dive,gt=0"`
	MinValueNM       float64            `json:"min_value_nm" validate:"gte=0"`
	MaxValueNM       float64            `json:"max_value_nm" validate:"gtfield=MinValueNM"`
	MeasurementTypes []string           `json:"measurement_types" validate:"required,min=1,dive,required"`
	AssayTypes       []string           `json:"assay_types" validate:"required,min=1,dive,required"`
	MinConfidence    int                `json:"min_confidence" validate:"gte=0"`
}

// HitPolicy configures hit identification and the summarized column
type HitPolicy struct {
	Cutoff         float64                    `json:"cutoff"`
	ActivityColumn bioactivity.ActivityColumn `json:"activity_col" validate:"oneof=pIC50 pKi"`
	MinReplicates  int                        `json:"min_n" validate:"gte=0"`
}

// ClassificationPolicy configures hit-strength labelling
type ClassificationPolicy struct {
	StrongCutoff  float64 `json:"strong_cutoff"`
	WeakCutoff    float64 `json:"weak_cutoff"`
	MaxStd        float64 `json:"max_std" validate:"gte=0"`
	MinReplicates int     `json:"min_n" validate:"gte=0"`
}

// Policy bundles every threshold of a hit-calling run
type Policy struct {
	Normalization  NormalizationPolicy  `json:"normalization"`
	Hits           HitPolicy            `json:"hits"`
	Classification ClassificationPolicy `json:"classification"`
}

// DefaultNormalizationPolicy: values within (0.1, 10000) nM, IC50 only,
// binding and functional assays, confidence of at least 7.
func DefaultNormalizationPolicy() NormalizationPolicy {
	return NormalizationPolicy{
		UnitFactors:      DefaultUnitFactors(),
		MinValueNM:       0.1,
		MaxValueNM:       10000,
		MeasurementTypes: []string{bioactivity.TypeIC50},
		AssayTypes:       []string{"B", "F"},
		MinConfidence:    7,
	}
}

// DefaultHitPolicy returns cutoff 6.0 on pIC50 with one replicate
func DefaultHitPolicy() HitPolicy {
	return HitPolicy{
		Cutoff:         6.0,
		ActivityColumn: bioactivity.ActivityPIC50,
		MinReplicates:  1,
	}
}

// DefaultClassificationPolicy returns strong 7.0, weak 6.0, max std 1.5, min n 1
func DefaultClassificationPolicy() ClassificationPolicy {
	return ClassificationPolicy{
		StrongCutoff:  7.0,
		WeakCutoff:    6.0,
		MaxStd:        1.5,
		MinReplicates: 1,
	}
}

// DefaultPolicy returns the documented defaults for every stage
func DefaultPolicy() Policy {
	return Policy{
		Normalization:  DefaultNormalizationPolicy(),
		Hits:           DefaultHitPolicy(),
		Classification: DefaultClassificationPolicy(),
	}
}

var validate = validator.New()

// Validate checks the policy for values no stage can work with.
// A weak cutoff above the strong cutoff is allowed; it only makes "weak"
// unreachable for compounds that miss "strong".
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return core.NewPolicyError(fe.Namespace(), fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidPolicy, err)
	}
	return nil
}

// Params flattens the policy for fingerprinting and run manifests
func (p Policy) Params() map[string]interface{} {
	units := make([]string, 0, len(p.Normalization.UnitFactors))
	for u, f := range p.Normalization.UnitFactors {
		units = append(units, fmt.Sprintf("%s:%g", u, f))
	}
	sort.Strings(units)

	return map[string]interface{}{
		"unit_factors":         strings.Join(units, ","),
		"min_value_nm":         p.Normalization.MinValueNM,
		"max_value_nm":         p.Normalization.MaxValueNM,
		"measurement_types":    strings.Join(p.Normalization.MeasurementTypes, ","),
		"assay_types":          strings.Join(p.Normalization.AssayTypes, ","),
		"min_confidence":       p.Normalization.MinConfidence,
		"hit_cutoff":           p.Hits.Cutoff,
		"activity_col":         string(p.Hits.ActivityColumn),
		"hit_min_n":            p.Hits.MinReplicates,
		"strong_cutoff":        p.Classification.StrongCutoff,
		"weak_cutoff":          p.Classification.WeakCutoff,
		"max_std":              p.Classification.MaxStd,
		"classification_min_n": p.Classification.MinReplicates,
	}
}

// Hash fingerprints the policy
func (p Policy) Hash() core.PolicyHash {
	return core.ComputePolicyHash(p.Params())
}
