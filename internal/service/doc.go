// Package service implements discovery, metrics refresh and the device
// operations behind the NetDash API.
//
// # Discovery
//
// DiscoveryService runs one pass: it removes the previous local gateway row,
// registers attached peripherals, registers the gateway under a fixed id,
// then registers every link-layer neighbor and refreshes its metrics.
// Neighbors are matched to stored devices by IP so repeated passes never
// create duplicates. Failures of individual steps are logged and the pass
// continues with what it gathered.
//
// # Metrics
//
// MetricsService reads CPU and storage over SNMP for SNMP devices and
// synthesizes values for NETCONF devices. A failed refresh leaves the stored
// values and their MetricsUpdatedAt stamp untouched.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE).
package service
