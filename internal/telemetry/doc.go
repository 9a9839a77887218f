// Package telemetry holds the publish pipeline shared by all three bridge
// daemons: the hysteresis-aware Publisher, the availability Supervisor,
// and the Home-Assistant-style discovery Announcer.
//
// None of these types know about Modbus, CAN, or RS485 — each bridge
// package decodes its own bus into a Reading and hands (topic, value)
// pairs to a Publisher built on top of an mqtt.Client.
package telemetry
