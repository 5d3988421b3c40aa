package pipeline

import (
	"math"
	"testing"

	"chemhits/adapters/coercer"
	"chemhits/domain/bioactivity"
	"chemhits/domain/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecord(id, stdType string, value interface{}, units, assay string, confidence *int) bioactivity.RawRecord {
	return bioactivity.RawRecord{
		MoleculeID:      id,
		CanonicalSmiles: "CCO",
		StandardType:    stdType,
		StandardValue:   value,
		StandardUnits:   units,
		AssayType:       assay,
		ConfidenceScore: confidence,
	}
}

func nMTable(values ...float64) *bioactivity.Table {
	rows := make([]bioactivity.Measurement, 0, len(values))
	for i, v := range values {
		rows = append(rows, bioactivity.Measurement{
			MoleculeID:    string(rune('A' + i)),
			StandardType:  bioactivity.TypeIC50,
			StandardValue: v,
			StandardUnits: "nM",
			AssayType:     "B",
		})
	}
	return bioactivity.NewTable(bioactivity.RawColumns, rows)
}

func TestCoerceNumeric_DropsMalformed(t *testing.T) {
	raw := &bioactivity.RawTable{
		Records: []bioactivity.RawRecord{
			rawRecord("A", "IC50", "500", "nM", "B", nil),
			rawRecord("B", "IC50", "n/a", "nM", "B", nil),
			rawRecord("C", "IC50", nil, "nM", "B", nil),
			rawRecord("D", "IC50", 12.5, "nM", "B", nil),
		},
	}

	out := CoerceNumeric(raw, coercer.NewNumericCoercer(coercer.DefaultCoercionConfig()))
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "A", out.Rows[0].MoleculeID)
	assert.Equal(t, 500.0, out.Rows[0].StandardValue)
	assert.Equal(t, "D", out.Rows[1].MoleculeID)
	assert.False(t, out.HasColumn(bioactivity.ColConfidenceScore))
}

func TestConvertUnits_SupportedUnits(t *testing.T) {
	factors := DefaultUnitFactors()
	for unit, factor := range factors {
		in := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
			{MoleculeID: "X", StandardValue: 2.5, StandardUnits: unit},
		})

		out := ConvertUnits(in, factors)
		require.Equal(t, 1, out.Len(), unit)
		assert.InDelta(t, 2.5*factor, out.Rows[0].StandardValue, 1e-9*factor, unit)
		assert.Equal(t, "nM", out.Rows[0].StandardUnits)
	}
}

func TestConvertUnits_UnknownUnitsDropped(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
		{MoleculeID: "A", StandardValue: 1, StandardUnits: "mM"},
		{MoleculeID: "B", StandardValue: 1, StandardUnits: ""},
		{MoleculeID: "C", StandardValue: 1, StandardUnits: "ug.mL-1"},
		{MoleculeID: "D", StandardValue: 1, StandardUnits: "nm"},
		{MoleculeID: "E", StandardValue: 1, StandardUnits: "uM"},
	})

	out := ConvertUnits(in, DefaultUnitFactors())
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "E", out.Rows[0].MoleculeID)
	assert.Equal(t, 1000.0, out.Rows[0].StandardValue)
}

func TestFilterValueRange_BoundsExcluded(t *testing.T) {
	in := nMTable(0.1, 0.1000001, 5, 9999.999, 10000, 0.05, 20000)
	out := FilterValueRange(in, 0.1, 10000)

	values := make([]float64, 0, out.Len())
	for _, r := range out.Rows {
		values = append(values, r.StandardValue)
	}
	assert.Equal(t, []float64{0.1000001, 5, 9999.999}, values)
}

func TestPActivity(t *testing.T) {
	assert.InDelta(t, 6.0, PActivity(1000), 1e-9)
	assert.InDelta(t, 9.0, PActivity(1), 1e-9)
	assert.InDelta(t, 7.0, PActivity(100), 1e-9)
}

func TestAddPotency_TypeSpecificColumns(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
		{MoleculeID: "A", StandardType: "IC50", StandardValue: 1000},
		{MoleculeID: "B", StandardType: "Ki", StandardValue: 100},
		{MoleculeID: "C", StandardType: "EC50", StandardValue: 10},
		{MoleculeID: "D", StandardType: "IC50", StandardValue: 0},
		{MoleculeID: "E", StandardType: "IC50", StandardValue: -5},
	})

	out := AddPotency(in)
	require.Equal(t, 3, out.Len())
	assert.True(t, out.HasColumn(bioactivity.ColPActivity))
	assert.True(t, out.HasColumn(bioactivity.ColPIC50))
	assert.True(t, out.HasColumn(bioactivity.ColPKi))

	ic50 := out.Rows[0]
	require.NotNil(t, ic50.PIC50)
	assert.InDelta(t, 6.0, *ic50.PIC50, 1e-9)
	assert.Nil(t, ic50.PKi)

	ki := out.Rows[1]
	assert.Nil(t, ki.PIC50)
	require.NotNil(t, ki.PKi)
	assert.InDelta(t, 7.0, *ki.PKi, 1e-9)

	other := out.Rows[2]
	require.NotNil(t, other.PActivity)
	assert.InDelta(t, 8.0, *other.PActivity, 1e-9)
	assert.Nil(t, other.PIC50)
	assert.Nil(t, other.PKi)
}

func TestFilterConfidence(t *testing.T) {
	raw := &bioactivity.RawTable{HasConfidenceScore: true}
	withColumn := bioactivity.NewTable(raw.Columns(), []bioactivity.Measurement{
		{MoleculeID: "A", ConfidenceScore: bioactivity.Int(9)},
		{MoleculeID: "B", ConfidenceScore: bioactivity.Int(7)},
		{MoleculeID: "C", ConfidenceScore: bioactivity.Int(6)},
		{MoleculeID: "D"},
	})

	out := FilterConfidence(withColumn, 7)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "A", out.Rows[0].MoleculeID)
	assert.Equal(t, "B", out.Rows[1].MoleculeID)

	withoutColumn := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
		{MoleculeID: "A"},
		{MoleculeID: "B"},
	})
	passthrough := FilterConfidence(withoutColumn, 7)
	assert.Equal(t, 2, passthrough.Len())
	assert.NotSame(t, withoutColumn, passthrough)
}

func TestFilterTypeAndAssay(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
		{MoleculeID: "A", StandardType: "IC50", AssayType: "B"},
		{MoleculeID: "B", StandardType: "Ki", AssayType: "B"},
		{MoleculeID: "C", StandardType: "IC50", AssayType: "A"},
		{MoleculeID: "D", StandardType: "IC50", AssayType: "F"},
	})

	out := FilterAssayType(FilterMeasurementType(in, []string{"IC50"}), []string{"B", "F"})
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "A", out.Rows[0].MoleculeID)
	assert.Equal(t, "D", out.Rows[1].MoleculeID)
}

func TestAggregateDuplicates_Medians(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.CanonicalColumns, []bioactivity.Measurement{
		{MoleculeID: "B", StandardType: "IC50", StandardValue: 300, PIC50: bioactivity.Float(6.5)},
		{MoleculeID: "A", StandardType: "IC50", StandardValue: 100, PIC50: bioactivity.Float(7.0)},
		{MoleculeID: "B", StandardType: "IC50", StandardValue: 100, PIC50: bioactivity.Float(7.0)},
		{MoleculeID: "B", StandardType: "IC50", StandardValue: 200, PIC50: bioactivity.Float(6.7)},
		{MoleculeID: "A", StandardType: "Ki", StandardValue: 10, PKi: bioactivity.Float(8.0)},
	})

	out := AggregateDuplicates(in)
	assert.Equal(t, AggregationColumns, out.Columns)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, "A", out.Rows[0].MoleculeID)
	assert.Equal(t, "IC50", out.Rows[0].StandardType)
	assert.Equal(t, "A", out.Rows[1].MoleculeID)
	assert.Equal(t, "Ki", out.Rows[1].StandardType)
	assert.Nil(t, out.Rows[1].PIC50)
	require.NotNil(t, out.Rows[1].PKi)

	b := out.Rows[2]
	assert.Equal(t, 200.0, b.StandardValue)
	require.NotNil(t, b.PIC50)
	assert.InDelta(t, 6.7, *b.PIC50, 1e-12)
	assert.Nil(t, b.PKi)
	assert.Nil(t, b.PActivity)
	assert.Empty(t, b.CanonicalSmiles)
}

func TestAggregateDuplicates_Idempotent(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.CanonicalColumns, []bioactivity.Measurement{
		{MoleculeID: "X", StandardType: "IC50", StandardValue: 500, PIC50: bioactivity.Float(PActivity(500))},
		{MoleculeID: "X", StandardType: "IC50", StandardValue: 1500, PIC50: bioactivity.Float(PActivity(1500))},
		{MoleculeID: "Y", StandardType: "IC50", StandardValue: 50, PIC50: bioactivity.Float(PActivity(50))},
	})

	once := AggregateDuplicates(in)
	twice := AggregateDuplicates(once)
	assert.Equal(t, once, twice)
}

func TestProject_KeepsPresentColumnsInCanonicalOrder(t *testing.T) {
	in := bioactivity.NewTable([]string{"pKi", "standard_value", "molecule_chembl_id", "extra"}, nil)
	out := Project(in, bioactivity.CanonicalColumns)
	assert.Equal(t, []string{"molecule_chembl_id", "standard_value", "pKi"}, out.Columns)
}

func TestStages_DoNotMutateInput(t *testing.T) {
	in := bioactivity.NewTable(bioactivity.RawColumns, []bioactivity.Measurement{
		{MoleculeID: "A", StandardType: "IC50", StandardValue: 2, StandardUnits: "uM", AssayType: "B"},
	})
	snapshot := in.Clone()

	converted := ConvertUnits(in, DefaultUnitFactors())
	potency := AddPotency(converted)
	*potency.Rows[0].PIC50 = 42

	assert.Equal(t, snapshot, in)
	assert.Equal(t, 2000.0, converted.Rows[0].StandardValue)
	assert.Nil(t, converted.Rows[0].PIC50)
}

func TestNormalize_EndToEndScenario(t *testing.T) {
	raw := &bioactivity.RawTable{
		HasConfidenceScore: true,
		Records: []bioactivity.RawRecord{
			rawRecord("X", "IC50", "500", "nM", "B", bioactivity.Int(9)),
			rawRecord("X", "IC50", "1500", "nM", "B", bioactivity.Int(9)),
			rawRecord("X", "Ki", "50", "uM", "B", bioactivity.Int(9)),
		},
	}

	out, result := NewNormalizer(DefaultNormalizationPolicy(), nil).Normalize(raw)

	require.Equal(t, 1, out.Len())
	row := out.Rows[0]
	assert.Equal(t, "X", row.MoleculeID)
	assert.Equal(t, "IC50", row.StandardType)
	assert.InDelta(t, 1000.0, row.StandardValue, 1e-9)
	require.NotNil(t, row.PIC50)
	// the potency column is the median of the replicate potencies
	assert.InDelta(t, (PActivity(500)+PActivity(1500))/2, *row.PIC50, 1e-9)
	assert.Nil(t, row.PKi)

	assert.Equal(t, []string{"molecule_chembl_id", "standard_type", "standard_value", "pIC50", "pKi"}, out.Columns)
	require.Len(t, result.Results, len(stage.NormalizerPlan))
	assert.Equal(t, 3, result.Overall.RowsIn)
	assert.Equal(t, 1, result.Overall.RowsOut)
}

func TestNormalize_KiComputedThenExcluded(t *testing.T) {
	raw := &bioactivity.RawTable{
		Records: []bioactivity.RawRecord{
			rawRecord("K", "Ki", "50", "nM", "B", nil),
		},
	}

	out, result := NewNormalizer(DefaultNormalizationPolicy(), nil).Normalize(raw)
	assert.Equal(t, 0, out.Len())

	potency, ok := result.Get(stage.StagePotency)
	require.True(t, ok)
	assert.Equal(t, 1, potency.RowsOut)
	typeFilter, ok := result.Get(stage.StageTypeFilter)
	require.True(t, ok)
	assert.Equal(t, 1, typeFilter.Dropped())
}

func TestNormalize_EmptyInput(t *testing.T) {
	out, result := NewNormalizer(DefaultNormalizationPolicy(), nil).Normalize(&bioactivity.RawTable{})
	assert.Equal(t, 0, out.Len())
	assert.NotNil(t, out.Rows)
	assert.Equal(t, []string{"molecule_chembl_id", "standard_type", "standard_value", "pIC50", "pKi"}, out.Columns)
	assert.Equal(t, 0, result.Overall.RowsOut)
}

func TestNormalize_MissingConfidenceColumnIsNoOp(t *testing.T) {
	raw := &bioactivity.RawTable{
		HasConfidenceScore: false,
		Records: []bioactivity.RawRecord{
			rawRecord("A", "IC50", "100", "nM", "F", nil),
		},
	}
	out, _ := NewNormalizer(DefaultNormalizationPolicy(), nil).Normalize(raw)
	require.Equal(t, 1, out.Len())
	assert.False(t, math.IsNaN(*out.Rows[0].PIC50))
}
