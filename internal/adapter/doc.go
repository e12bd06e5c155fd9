// Package adapter implements the platform boundary for NetDash discovery.
//
// Everything that touches the host or the network lives here: running OS
// commands, parsing their output, and speaking SNMP to devices. The service
// layer composes these pieces and never parses command output itself.
//
// # Platform Variants
//
// Platform is a tag (windows, linux, darwin, unsupported) detected once at
// startup. NewToolkit uses it to select one GatewayResolver, NeighborScanner
// and PeripheralLister per tag. The unsupported variants report "nothing
// found" rather than failing.
//
// # Parsers
//
// The text parsers (ParseGateway, ParseNeighborTable, ParseIPNeigh,
// ParseDarwinARP, ParseLSUSB) are pure functions over command output lines,
// so they can be tested against captured output without running commands.
//
// # SNMP
//
// SNMPClient is a v2c GET client built on gosnmp. One short-lived session is
// opened per query. Failures are classified as ErrSNMPTimeout,
// ErrSNMPTransport or ErrSNMPResponse.
//
// # Ping Sweep
//
// NeighborSweep optionally runs an nmap ping scan over configured ranges to
// populate the neighbor cache before the table is read.
package adapter
