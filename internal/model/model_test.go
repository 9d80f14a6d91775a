package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestResults_AllPassed(t *testing.T) {
	tests := []struct {
		name        string
		results     TestResults
		emptyIsPass bool
		want        bool
	}{
		{name: "empty suite not correct by default", results: nil, want: false},
		{name: "empty suite with vacuous pass", results: TestResults{}, emptyIsPass: true, want: true},
		{name: "all passed", results: TestResults{{Passed: true}, {Passed: true}}, want: true},
		{name: "one failed", results: TestResults{{Passed: true}, {Passed: false}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.results.AllPassed(tt.emptyIsPass))
		})
	}
}

func TestTestResults_NilStoredAsNull(t *testing.T) {
	var tr TestResults
	v, err := tr.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var back TestResults
	require.NoError(t, back.Scan(nil))
	assert.Nil(t, back)
}

func TestTestResults_ScanFromText(t *testing.T) {
	var tr TestResults
	err := tr.Scan(`[{"test_case":{"input":"2 3","expected_output":"5"},"actual_output":"5","passed":true,"error":""}]`)
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, "2 3", tr[0].TestCase.Input)
	assert.True(t, tr[0].Passed)
	assert.Equal(t, 0, tr.Failed())
}

func TestTestCases_EmptyStoredAsArray(t *testing.T) {
	var tc TestCases
	v, err := tc.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTestCases_ScanRejectsUnknownType(t *testing.T) {
	var tc TestCases
	assert.Error(t, tc.Scan(42))
}
