package run

import (
	"fmt"

	"chemhits/domain/core"
)

// RunFingerprint ensures a run can be recognized when replayed on the same input
type RunFingerprint struct {
	TargetID      core.TargetID   `json:"target_id"`
	InputHash     core.InputHash  `json:"input_hash"`
	PolicyHash    core.PolicyHash `json:"policy_hash"`
	StagePlanHash core.Hash       `json:"stage_plan_hash"`
	CodeVersion   string          `json:"code_version"`
	Fingerprint   core.Hash       `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(targetID core.TargetID, inputHash core.InputHash,
	policyHash core.PolicyHash, stagePlanHash core.Hash, codeVersion string) RunFingerprint {

	return RunFingerprint{
		TargetID:      targetID,
		InputHash:     inputHash,
		PolicyHash:    policyHash,
		StagePlanHash: stagePlanHash,
		CodeVersion:   codeVersion,
		Fingerprint:   computeRunFingerprint(targetID, inputHash, policyHash, stagePlanHash, codeVersion),
	}
}

func computeRunFingerprint(targetID core.TargetID, inputHash core.InputHash,
	policyHash core.PolicyHash, stagePlanHash core.Hash, codeVersion string) core.Hash {

	data := fmt.Sprintf("target:%s|input:%s|policy:%s|stage_plan:%s|code:%s",
		targetID, inputHash, policyHash, stagePlanHash, codeVersion)
	return core.NewHash([]byte(data))
}
