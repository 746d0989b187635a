package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPeriods_FourWeeks(t *testing.T) {
	periods, err := BuildPeriods(mustDate("2026-03-02"), mustDate("2026-03-29"), nil)
	require.NoError(t, err)
	require.Len(t, periods, 8)

	for i, p := range periods {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, i/2+1, p.WeekNumber)
		if i%2 == 0 {
			assert.Equal(t, Weekday, p.Kind)
			assert.Len(t, p.Dates, 5)
		} else {
			assert.Equal(t, Weekend, p.Kind)
			assert.Len(t, p.Dates, 2)
		}
	}

	assert.Equal(t, []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"}, periods[0].DateStrings())
	assert.Equal(t, []string{"2026-03-07", "2026-03-08"}, periods[1].DateStrings())
	assert.Equal(t, "Wk 1 (Mar 2-Mar 6)", periods[0].Label())
	assert.Equal(t, "WE 4 (Mar 28-Mar 29)", periods[7].Label())
}

func TestBuildPeriods_AnchorsOnFirstMonday(t *testing.T) {
	// Starts on a Wednesday: the partial week is skipped
	periods, err := BuildPeriods(mustDate("2026-03-04"), mustDate("2026-03-15"), nil)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2026-03-09", periods[0].DateStrings()[0])
	assert.Equal(t, 1, periods[0].WeekNumber)
}

func TestBuildPeriods_ClipsToEnd(t *testing.T) {
	periods, err := BuildPeriods(mustDate("2026-03-02"), mustDate("2026-03-11"), nil)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, []string{"2026-03-09", "2026-03-10", "2026-03-11"}, periods[2].DateStrings())
}

func TestBuildPeriods_Errors(t *testing.T) {
	_, err := BuildPeriods(mustDate("2026-03-15"), mustDate("2026-03-02"), nil)
	assert.ErrorIs(t, err, ErrInvalidBlock)

	// Tuesday to Sunday holds no Monday
	_, err = BuildPeriods(mustDate("2026-03-03"), mustDate("2026-03-08"), nil)
	assert.ErrorIs(t, err, ErrNoPeriods)
}

func TestBuildPeriods_FlagsHoliday(t *testing.T) {
	periods, err := BuildPeriods(mustDate("2026-05-18"), mustDate("2026-05-31"), []Holiday{
		{Name: "Memorial Day", Date: mustDate("2026-05-25")},
	})
	require.NoError(t, err)
	require.Len(t, periods, 4)

	assert.Empty(t, periods[0].Holiday)
	assert.Equal(t, "Memorial Day", periods[2].Holiday)
	assert.Empty(t, periods[3].Holiday)
}
