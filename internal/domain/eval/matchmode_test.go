package eval_test

import (
	"testing"

	"github.com/raks/aegis/internal/domain/eval"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateMatchMode(t *testing.T) {
	tests := []struct {
		mode            string
		total, matching int
		n               int
		want            bool
	}{
		{"", 0, 0, 0, true},
		{"", 3, 3, 0, true},
		{"ALL_FILES", 3, 2, 0, false},
		{"ANY_FILE", 3, 1, 0, true},
		{"ANY_FILE", 3, 0, 0, false},
		{"NONE_OF_FILES", 3, 0, 0, true},
		{"NONE_OF_FILES", 3, 1, 0, false},
		{"EXACTLY_ONE", 3, 1, 0, true},
		{"EXACTLY_ONE", 3, 2, 0, false},
		{"AT_LEAST_N", 5, 2, 2, true},
		{"AT_LEAST_N", 5, 1, 2, false},
		{"AT_MOST_N", 5, 2, 2, true},
		{"AT_MOST_N", 5, 3, 2, false},
		{"any_file", 2, 1, 0, true},
		{"REGEX", 2, 1, 0, false},
		{"BOGUS", 2, 2, 0, true},
	}
	for _, tt := range tests {
		got := eval.EvaluateMatchMode(tt.mode, tt.total, tt.matching, tt.n)
		assert.Equal(t, tt.want, got, "%s total=%d matching=%d n=%d", tt.mode, tt.total, tt.matching, tt.n)
	}
}

func TestEvaluateMatchMode_AllAndAnyTotals(t *testing.T) {
	for total := 0; total <= 4; total++ {
		for matching := 0; matching <= total; matching++ {
			assert.Equal(t, matching == total, eval.EvaluateMatchMode(eval.ModeAllFiles, total, matching, 0))
			assert.Equal(t, matching > 0, eval.EvaluateMatchMode(eval.ModeAnyFile, total, matching, 0))
		}
	}
}
