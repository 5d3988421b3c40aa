package ports

import (
	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
)

// OutputWriter persists a classified hit table under dir and returns the written path
type OutputWriter interface {
	Format() string
	Write(dir string, target core.TargetID, table *bioactivity.ClassifiedTable) (string, error)
}
