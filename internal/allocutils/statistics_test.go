package allocutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetailedStatisticsEmbedsStatistics(t *testing.T) {
	var stats DetailedStatistics
	stats.BlockCount = 1
	stats.AllocationCount = 2

	require.Equal(t, Statistics{BlockCount: 1, AllocationCount: 2}, stats.Statistics)
}
