package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// 2022-03-05 is a Saturday.
func at(day, hour int) time.Time {
	return time.Date(2022, 3, day, hour, 15, 0, 0, time.UTC)
}

var parkClosures = Closures{
	{ToHour: ptr(5), WhenNoneAvailable: true},
	{Entity: "Laurent Bonnevay", Weekdays: []string{"Dimanche"}},
	{Entity: "Gorge de Loup", Weekdays: []string{"Dimanche"}},
	{Entity: "Meyzieu les Panettes", Weekdays: []string{"Samedi", "Dimanche"}},
}

func TestOccupancyRate(t *testing.T) {
	r := OccupancyRate(10, 0)
	require.NotNil(t, r)
	assert.Equal(t, 100.0, *r)

	r = OccupancyRate(742, 371)
	require.NotNil(t, r)
	assert.InDelta(t, 50.0, *r, 1e-9)

	assert.Nil(t, OccupancyRate(0, 0))
	assert.Nil(t, OccupancyRate(-3, 0))
}

func TestRateClamp(t *testing.T) {
	obs := []Observation{
		{Entity: "over", At: at(7, 8), Value: OccupancyRate(10, -5)},
		{Entity: "under", At: at(7, 8), Value: OccupancyRate(10, 25)},
	}
	metrics := Aggregate(obs, Spec{Dimensions: []Dimension{DimEntity}, Rate: true})
	require.Len(t, metrics, 2)
	for _, m := range metrics {
		require.NotNil(t, m.Value)
		assert.GreaterOrEqual(t, *m.Value, 0.0)
		assert.LessOrEqual(t, *m.Value, 100.0)
	}
	assert.Equal(t, 100.0, *metrics[0].Value)
	assert.Equal(t, 0.0, *metrics[1].Value)

	raw := Aggregate(obs, Spec{Dimensions: []Dimension{DimEntity}})
	assert.Equal(t, 150.0, *raw[0].Value)
}

func TestClosures(t *testing.T) {
	tests := []struct {
		name   string
		obs    Observation
		closed bool
	}{
		{name: "meyzieu on saturday", obs: Observation{Entity: "Meyzieu les Panettes", At: at(5, 14), Available: ptr(120)}, closed: true},
		{name: "meyzieu on monday", obs: Observation{Entity: "Meyzieu les Panettes", At: at(7, 14), Available: ptr(120)}},
		{name: "bonnevay on sunday", obs: Observation{Entity: "Laurent Bonnevay", At: at(6, 10), Available: ptr(4)}, closed: true},
		{name: "night and full", obs: Observation{Entity: "Vaise", At: at(8, 5), Available: ptr(0)}, closed: true},
		{name: "night with room", obs: Observation{Entity: "Vaise", At: at(8, 5), Available: ptr(10)}},
		{name: "morning and full", obs: Observation{Entity: "Vaise", At: at(8, 6), Available: ptr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.closed, parkClosures.Closed(tt.obs))
		})
	}
}

func TestMeyzieuOnSaturdayIsZero(t *testing.T) {
	obs := []Observation{
		{Entity: "Meyzieu les Panettes", At: at(5, 9), Value: OccupancyRate(400, 100), Available: ptr(100)},
		{Entity: "Meyzieu les Panettes", At: at(5, 9), Value: OccupancyRate(400, 200), Available: ptr(200)},
	}
	metrics := Aggregate(obs, Spec{
		Dimensions: []Dimension{DimEntity, DimWeekday, DimHour},
		Rate:       true,
		Closures:   parkClosures,
	})
	require.Len(t, metrics, 1)
	assert.Equal(t, Group{Entity: "Meyzieu les Panettes", Weekday: "Samedi", Hour: 9}, metrics[0].Group)
	require.NotNil(t, metrics[0].Value)
	assert.Equal(t, 0.0, *metrics[0].Value)
	assert.Equal(t, 2, metrics[0].Closed)
}

func TestAggregateGroupsAndSorts(t *testing.T) {
	obs := []Observation{
		{Entity: "B", At: at(6, 8), Value: ptr(40.0)},
		{Entity: "A", At: at(7, 9), Value: ptr(10.0)},
		{Entity: "A", At: at(7, 9), Value: ptr(30.0)},
		{Entity: "A", At: at(6, 9), Value: ptr(50.0)},
		{Entity: "A", At: at(7, 15), Value: nil},
	}
	metrics := Aggregate(obs, Spec{Dimensions: []Dimension{DimEntity, DimWeekday, DimPeriod}})
	require.Len(t, metrics, 4)

	assert.Equal(t, Group{Entity: "A", Weekday: "Lundi", Period: PeriodMorning}, metrics[0].Group)
	assert.Equal(t, 20.0, *metrics[0].Value)
	assert.Equal(t, 2, metrics[0].Count)

	assert.Equal(t, Group{Entity: "A", Weekday: "Lundi", Period: PeriodAfternoon}, metrics[1].Group)
	assert.Nil(t, metrics[1].Value)

	assert.Equal(t, Group{Entity: "A", Weekday: "Dimanche", Period: PeriodMorning}, metrics[2].Group)
	assert.Equal(t, "B", metrics[3].Group.Entity)

	hi := Aggregate(obs, Spec{Dimensions: []Dimension{DimEntity}, Metric: Max})
	assert.Equal(t, 50.0, *hi[0].Value)
	lo := Aggregate(obs, Spec{Dimensions: []Dimension{DimEntity}, Metric: Min})
	assert.Equal(t, 10.0, *lo[0].Value)
}

func TestFillHours(t *testing.T) {
	dims := []Dimension{DimEntity, DimHour}
	metrics := Aggregate([]Observation{
		{Entity: "A", At: at(7, 8), Value: ptr(10.0)},
		{Entity: "B", At: at(7, 23), Value: ptr(20.0)},
	}, Spec{Dimensions: dims})

	filled := FillHours(metrics, dims)
	require.Len(t, filled, 48)
	for i, m := range filled {
		assert.Equal(t, i%24, m.Group.Hour)
	}
	assert.Equal(t, 10.0, *filled[8].Value)
	assert.Nil(t, filled[9].Value)
	assert.Equal(t, 20.0, *filled[47].Value)
}

func TestCheckAvailable(t *testing.T) {
	assert.ErrorIs(t, CheckAvailable(nil), ErrDataUnavailable)
	assert.ErrorIs(t, CheckAvailable([]Metric{{Value: nil}, {Value: ptr(0.0)}}), ErrDataUnavailable)
	assert.NoError(t, CheckAvailable([]Metric{{Value: nil}, {Value: ptr(0.5)}}))
}

func TestCalendar(t *testing.T) {
	assert.Equal(t, "Lundi", WeekdayLabel(time.Monday))
	assert.Equal(t, "Dimanche", WeekdayLabel(time.Sunday))
	d, ok := ParseWeekday("Samedi")
	require.True(t, ok)
	assert.Equal(t, time.Saturday, d)
	_, ok = ParseWeekday("Saturday")
	assert.False(t, ok)
	assert.Equal(t, PeriodMorning, PeriodOf(11))
	assert.Equal(t, PeriodAfternoon, PeriodOf(12))
}
