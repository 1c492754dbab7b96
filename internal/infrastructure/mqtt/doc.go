// Package mqtt provides MQTT client connectivity for AirWatch Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Topic subscriptions with wildcard support
//   - Connection health monitoring
//
// # Architecture
//
// AirWatch consumes sensor readings pushed by the field node over MQTT.
// The broker decouples the ingestion pipeline from the sensor firmware:
//
//	Sensor Node → MQTT Broker → AirWatch Core
//
// There is no publish surface: AirWatch is a pure subscriber, and delivery
// semantics are last-write-wins at the mailbox above this layer. A dropped
// message is replaced by the next reading within seconds, so the client
// never buffers or replays.
//
// # Security Considerations
//
//   - TLS is recommended for brokers outside the local network (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("airwatch/sensors/readings", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
