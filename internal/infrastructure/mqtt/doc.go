// Package mqtt provides MQTT client connectivity for the telemetry bridges.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Each bridge daemon (Modbus, CAN, RS485) owns exactly one Client. The
// client library keeps the broker connection and its reconnects in its
// own goroutines. Publish hands a message to the library and then waits
// up to defaultPublishTimeout for the acknowledgment, so a Publish call
// does block on the broker round trip.
//
//	Physical Bus → Bridge → MQTT Client → Broker
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, topics.Status(), "offline")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Publish(topics.GroupedState("module0", "voltage"), payload, 0, false)
package mqtt
