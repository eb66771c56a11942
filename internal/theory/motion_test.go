package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMotion(t *testing.T) {
	tests := []struct {
		name           string
		uf, ut, lf, lt int
		want           Motion
	}{
		{"static", 67, 67, 60, 60, MotionStatic},
		{"oblique", 67, 69, 60, 60, MotionOblique},
		{"contrary", 72, 69, 60, 62, MotionContrary},
		{"parallel", 67, 69, 60, 62, MotionParallel},
		{"similar", 64, 69, 60, 62, MotionSimilar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyMotion(tt.uf, tt.ut, tt.lf, tt.lt)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.String())
		})
	}
}

func TestIsParallelPerfect(t *testing.T) {
	tests := []struct {
		name           string
		uf, ut, lf, lt int
		want           bool
	}{
		{"parallel fifths", 67, 69, 60, 62, true},
		{"parallel octaves", 72, 74, 60, 62, true},
		{"compound fifth to fifth", 79, 81, 60, 62, true},
		{"fifth to octave", 67, 74, 60, 62, false},
		{"contrary fifths", 67, 72, 60, 53, false},
		{"thirds", 64, 65, 60, 62, false},
		{"held voice", 67, 67, 60, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsParallelPerfect(tt.uf, tt.ut, tt.lf, tt.lt))
		})
	}
}

func TestIsDirectPerfect(t *testing.T) {
	tests := []struct {
		name           string
		uf, ut, lf, lt int
		want           bool
	}{
		{"leap into fifth", 64, 69, 60, 62, true},
		{"step into fifth", 67, 69, 57, 62, false},
		{"leap into octave", 67, 74, 60, 62, true},
		{"parallel is not direct", 67, 69, 60, 62, false},
		{"contrary into octave", 76, 72, 55, 60, false},
		{"leap into third", 64, 69, 60, 65, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDirectPerfect(tt.uf, tt.ut, tt.lf, tt.lt, 2))
		})
	}
}

func TestIntervalHelpers(t *testing.T) {
	assert.Equal(t, 1, IntervalClass(60, 71))
	assert.Equal(t, 6, IntervalClass(60, 66))
	assert.Equal(t, 7, SimpleInterval(48, 67))
	assert.True(t, IsConsonant(16))
	assert.False(t, IsConsonant(14))
	assert.True(t, IsAwkwardLeap(-10))
	assert.True(t, IsAwkwardLeap(13))
	assert.False(t, IsAwkwardLeap(12))
}
