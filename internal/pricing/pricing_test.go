package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestQuoteMidBandPersonalAccident(t *testing.T) {
	// Customer born 1991-06-25 is 28 at the evaluation date: cover 20000×1.1,
	// premium 200×1.5.
	cover, premium := Quote("personal-accident", date(1991, time.June, 25), date(2020, time.January, 1))

	require.Equal(t, "22000", cover.String())
	require.Equal(t, "300", premium.String())
}

func TestQuoteYoungBandDoublesPremium(t *testing.T) {
	cover, premium := Quote("auto", date(2004, time.March, 10), date(2020, time.January, 1))

	require.Equal(t, "36000", cover.String())
	require.Equal(t, "600", premium.String())
}

func TestQuoteSeniorBandReducesCoverOnly(t *testing.T) {
	cover, premium := Quote("homeowner-insurance", date(1950, time.May, 2), date(2020, time.January, 1))

	require.Equal(t, "28000", cover.String())
	require.Equal(t, "400", premium.String())
}

func TestQuoteUnrecognizedTypeFallsBackToDefaultRate(t *testing.T) {
	cover, premium := Quote("spaceship", date(1991, time.June, 25), date(2020, time.January, 1))

	require.Equal(t, "55000", cover.String())
	require.Equal(t, "750", premium.String())
}

func TestQuoteIsDeterministic(t *testing.T) {
	dob := date(1980, time.December, 31)
	now := date(2024, time.July, 15)

	c1, p1 := Quote("auto", dob, now)
	c2, p2 := Quote("auto", dob, now)

	require.True(t, c1.Equal(c2))
	require.True(t, p1.Equal(p2))
}

func TestAgeFloorsOnDayGranularity(t *testing.T) {
	dob := date(1999, time.January, 1)

	// 365-day years: someone born 25 calendar years ago can still be 25 by
	// this rule because leap days accumulate.
	require.Equal(t, 25, Age(dob, date(2024, time.January, 1)))
	require.Equal(t, 24, Age(dob, date(2023, time.December, 25)))
}
