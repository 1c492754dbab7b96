package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mkalens/airwatch-core/internal/airquality"
)

// WriteAirQuality mirrors a sensor reading to InfluxDB.
//
// One point per reading in the air_quality measurement, tagged with the
// site name, timestamped with the reading's own timestamp so replayed or
// re-fetched readings land at the right place on the time axis.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Failures surface only in the async error log, never to the caller,
// which keeps the ingestion cadence independent of InfluxDB availability.
//
// Parameters:
//   - r: The sensor reading to mirror
func (c *Client) WriteAirQuality(r airquality.Reading) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"air_quality",
		map[string]string{
			"site": c.site,
		},
		map[string]interface{}{
			"aqi":           r.AQI,
			"temperature":   r.Temperature,
			"humidity":      r.Humidity,
			"raw_gas_index": r.RawGasIndex,
		},
		r.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}
