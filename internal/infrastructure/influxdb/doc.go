// Package influxdb mirrors sensor readings to an InfluxDB v2 instance.
//
// The mirror is optional (influxdb.enabled in config.yaml) and strictly
// best-effort: the SQLite archive is the durable local record, InfluxDB
// exists for Grafana dashboards and long-range queries. Writes are batched
// and non-blocking, and failures never propagate into the ingestion path.
//
// # Usage
//
//	mirror, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.Name, logger)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    mirror = nil // run without the mirror
//	} else if err != nil {
//	    return err
//	}
//	defer mirror.Close()
//
//	mirror.WriteAirQuality(reading)
package influxdb
