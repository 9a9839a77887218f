// Package can decodes the fixed set of Pylontech-profile CAN-BMS
// arbitration IDs used by the battery stack's master BMS, and drives a
// SocketCAN interface to pull frames off the bus.
package can
