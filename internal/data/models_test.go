//go:build unit

package data

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestOfferActive(t *testing.T) {
	tests := []struct {
		name  string
		offer Offer
		today time.Time
		want  bool
	}{
		{
			name:  "no bounds is always active",
			offer: Offer{},
			today: date(2026, 8, 15),
			want:  true,
		},
		{
			name:  "before the window",
			offer: Offer{StartDate: datePtr(2026, 8, 10), EndDate: datePtr(2026, 8, 20)},
			today: date(2026, 8, 9),
			want:  false,
		},
		{
			name:  "start day is inclusive",
			offer: Offer{StartDate: datePtr(2026, 8, 10), EndDate: datePtr(2026, 8, 20)},
			today: date(2026, 8, 10),
			want:  true,
		},
		{
			name:  "end day is inclusive",
			offer: Offer{StartDate: datePtr(2026, 8, 10), EndDate: datePtr(2026, 8, 20)},
			today: date(2026, 8, 20),
			want:  true,
		},
		{
			name:  "after the window",
			offer: Offer{StartDate: datePtr(2026, 8, 10), EndDate: datePtr(2026, 8, 20)},
			today: date(2026, 8, 21),
			want:  false,
		},
		{
			name:  "open start",
			offer: Offer{EndDate: datePtr(2026, 8, 20)},
			today: date(2020, 1, 1),
			want:  true,
		},
		{
			name:  "open end",
			offer: Offer{StartDate: datePtr(2026, 8, 10)},
			today: date(2030, 1, 1),
			want:  true,
		},
		{
			name:  "time of day does not matter on the end day",
			offer: Offer{EndDate: datePtr(2026, 8, 20)},
			today: time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "late evening west of UTC stays on the end day",
			offer: Offer{EndDate: datePtr(2026, 8, 20)},
			today: time.Date(2026, 8, 20, 23, 30, 0, 0, time.FixedZone("CLT", -4*60*60)),
			want:  true,
		},
		{
			name:  "early morning east of UTC is already the start day",
			offer: Offer{StartDate: datePtr(2026, 8, 10)},
			today: time.Date(2026, 8, 10, 0, 30, 0, 0, time.FixedZone("NZST", 12*60*60)),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.offer.Active(tt.today); got != tt.want {
				t.Errorf("Active(%v) = %v; want %v", tt.today, got, tt.want)
			}
		})
	}
}
