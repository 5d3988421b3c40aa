package stage

import "testing"

func TestNormalizerPlan_Order(t *testing.T) {
	expected := []StageName{
		StageNumericCoercion,
		StageUnitConversion,
		StageRangeFilter,
		StagePotency,
		StageTypeFilter,
		StageAssayFilter,
		StageConfidence,
		StageAggregation,
		StageProjection,
	}

	if len(NormalizerPlan) != len(expected) {
		t.Fatalf("Expected %d stages, got %d", len(expected), len(NormalizerPlan))
	}
	for i, name := range expected {
		if NormalizerPlan[i].Name != name {
			t.Errorf("Stage %d: expected %s, got %s", i, name, NormalizerPlan[i].Name)
		}
	}
}

func TestPlanHash_OrderSensitive(t *testing.T) {
	swapped := append([]StageSpec(nil), NormalizerPlan...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	if PlanHash(NormalizerPlan) == PlanHash(swapped) {
		t.Error("Expected plan hash to change when stages are reordered")
	}
	if PlanHash(NormalizerPlan) != PlanHash(NormalizerPlan) {
		t.Error("Expected plan hash to be deterministic")
	}
}

func TestPipelineResult_AddResult(t *testing.T) {
	r := NewPipelineResult()
	r.AddResult(StageResult{StageName: StageNumericCoercion, RowsIn: 10, RowsOut: 8, Duration: 5})
	r.AddResult(StageResult{StageName: StageUnitConversion, RowsIn: 8, RowsOut: 7, Duration: 3})

	if r.Overall.RowsIn != 10 || r.Overall.RowsOut != 7 {
		t.Errorf("Expected rows 10 -> 7, got %d -> %d", r.Overall.RowsIn, r.Overall.RowsOut)
	}
	if r.Overall.TotalDuration != 8 {
		t.Errorf("Expected total duration 8, got %d", r.Overall.TotalDuration)
	}

	res, ok := r.Get(StageNumericCoercion)
	if !ok || res.Dropped() != 2 {
		t.Errorf("Expected numeric coercion to drop 2 rows, got %+v", res)
	}
	if _, ok := r.Get(StageAggregation); ok {
		t.Error("Expected aggregation to be absent")
	}
}
