// Package domain defines the core domain types for the NetDash device dashboard.
//
// This package contains the entities and value objects shared by discovery,
// metrics refresh, persistence and the HTTP layer.
//
// # Core Types
//
// Device represents anything the dashboard tracks: locally attached
// peripherals, the default gateway, and neighbors learned from the ARP
// table. A device carries its management protocol, which decides how its
// CPU and memory readings are refreshed.
//
// Peripheral and Neighbor are the raw outputs of the platform inventory and
// the neighbor table scanner before they become devices.
//
// MetricSample is one entry in the in-memory rolling metrics window.
//
// # Gateway Singleton
//
// The local gateway is always stored under GatewayID. Discovery deletes that
// row before inserting a fresh one, so repeated passes never accumulate
// duplicate router rows.
//
// # Design Principles
//
// - No database or external dependencies
// - Sentinel errors for not-found and validation outcomes
package domain
