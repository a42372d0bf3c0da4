package analytics

import (
	"time"

	"air-quality-platform/internal/models"
)

func f(v float64) *float64 { return &v }

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// obs builds an observation with the given PM2.5/PM10; nil marks missing
func obs(station string, date time.Time, pm25, pm10 *float64) models.AirQualityObservation {
	return models.AirQualityObservation{
		StationID: station,
		Year:      date.Year(),
		Month:     int(date.Month()),
		Day:       date.Day(),
		Date:      date,
		PM25:      pm25,
		PM10:      pm10,
	}
}

func sampleObservations() []models.AirQualityObservation {
	return []models.AirQualityObservation{
		obs("Dongsi", day(2013, 3, 1), f(9), f(12)),
		obs("Aotizhongxin", day(2013, 3, 1), f(4), f(4)),
		obs("Dongsi", day(2013, 3, 2), f(60), f(80)),
		obs("Changping", day(2013, 3, 15), nil, f(30)),
		obs("Aotizhongxin", day(2013, 4, 1), f(41), f(50)),
		obs("Dongsi", day(2013, 4, 20), f(15), nil),
		obs("Changping", day(2013, 5, 1), f(36), f(40)),
	}
}
