package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Well-known object identifiers read by the metrics refresh path
const (
	// OIDProcessorLoad is HOST-RESOURCES-MIB hrProcessorLoad for the first processor
	OIDProcessorLoad = ".1.3.6.1.2.1.25.3.3.1.2.1"
	// OIDStorageUsed is HOST-RESOURCES-MIB hrStorageUsed for the first storage entry
	OIDStorageUsed = ".1.3.6.1.2.1.25.2.3.1.6.1"
	// OIDIfOperStatus is IF-MIB ifOperStatus for the first interface
	OIDIfOperStatus = ".1.3.6.1.2.1.2.2.1.8.1"
)

var (
	// ErrSNMPTimeout is returned when every attempt went unanswered
	ErrSNMPTimeout = errors.New("snmp request timed out")
	// ErrSNMPTransport is returned when the session could not be opened or the socket failed
	ErrSNMPTransport = errors.New("snmp transport error")
	// ErrSNMPResponse is returned when the agent answered with an error status or an undecodable value
	ErrSNMPResponse = errors.New("snmp response error")
)

// SNMPConfig holds session parameters for the SNMP v2c client
type SNMPConfig struct {
	Port      uint16
	Community string
	Timeout   time.Duration
	Retries   int
}

// DefaultSNMPConfig returns the standard community/port/retry settings
func DefaultSNMPConfig() SNMPConfig {
	return SNMPConfig{
		Port:      161,
		Community: "public",
		Timeout:   time.Second,
		Retries:   2,
	}
}

// SNMPQuerier issues a single GET carrying one or more OIDs
type SNMPQuerier interface {
	Query(ctx context.Context, address string, oids []string) (map[string]any, error)
}

// SNMPClient is an SNMP v2c GET client. Each query opens its own session,
// sends one request carrying all OIDs, and closes the session.
type SNMPClient struct {
	config SNMPConfig
}

// NewSNMPClient creates a client; zero-valued settings fall back to defaults.
// A negative Retries disables retransmission.
func NewSNMPClient(config SNMPConfig) *SNMPClient {
	defaults := DefaultSNMPConfig()
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.Community == "" {
		config.Community = defaults.Community
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	switch {
	case config.Retries == 0:
		config.Retries = defaults.Retries
	case config.Retries < 0:
		config.Retries = 0
	}
	return &SNMPClient{config: config}
}

// Config returns the effective session parameters
func (c *SNMPClient) Config() SNMPConfig {
	return c.config
}

// Query sends one GET for oids to address. address may be a bare host or
// host:port; a bare host uses the configured port. Values are decoded to
// int64, uint64, float64 or string. OIDs the agent does not implement are
// absent from the result.
func (c *SNMPClient) Query(ctx context.Context, address string, oids []string) (map[string]any, error) {
	if len(oids) == 0 {
		return map[string]any{}, nil
	}

	target, port, err := c.splitAddress(address)
	if err != nil {
		return nil, err
	}

	session := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    target,
		Port:      port,
		Community: c.config.Community,
		Version:   gosnmp.Version2c,
		Timeout:   c.config.Timeout,
		Retries:   c.config.Retries,
		MaxOids:   gosnmp.MaxOids,
	}

	if err := session.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrSNMPTransport, address, err)
	}
	defer session.Conn.Close()

	result, err := session.Get(oids)
	if err != nil {
		return nil, classifySNMPError(address, err)
	}

	if result.Error != gosnmp.NoError {
		return nil, fmt.Errorf("%w: %s returned %s (index %d)",
			ErrSNMPResponse, address, result.Error, result.ErrorIndex)
	}

	return DecodeVariables(result.Variables)
}

func (c *SNMPClient) splitAddress(address string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return address, c.config.Port, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid port in %q", ErrSNMPTransport, address)
	}
	return host, uint16(port), nil
}

// classifySNMPError maps gosnmp failures onto the client's error kinds.
// gosnmp reports exhausted retries as a plain "request timeout" error.
func classifySNMPError(address string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrSNMPTimeout, address, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrSNMPTimeout, address, err)
	}

	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return fmt.Errorf("%w: %s: %v", ErrSNMPTimeout, address, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %s: %v", ErrSNMPTransport, address, err)
	}

	return fmt.Errorf("%w: %s: %v", ErrSNMPResponse, address, err)
}

// DecodeVariables converts a response's variable bindings to a map keyed by
// OID (leading dot kept as returned by the agent)
func DecodeVariables(variables []gosnmp.SnmpPDU) (map[string]any, error) {
	values := make(map[string]any, len(variables))
	for _, v := range variables {
		switch v.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
			continue
		}

		value, err := decodeVariable(v)
		if err != nil {
			return nil, err
		}
		values[normalizeOID(v.Name)] = value
	}
	return values, nil
}

func decodeVariable(v gosnmp.SnmpPDU) (any, error) {
	switch v.Type {
	case gosnmp.Integer:
		return gosnmp.ToBigInt(v.Value).Int64(), nil
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(v.Value).Uint64(), nil
	case gosnmp.OctetString, gosnmp.ObjectDescription, gosnmp.BitString:
		b, ok := v.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: %s: octet string carried %T", ErrSNMPResponse, v.Name, v.Value)
		}
		return string(b), nil
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		s, ok := v.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s carried %T", ErrSNMPResponse, v.Name, v.Type, v.Value)
		}
		return s, nil
	case gosnmp.OpaqueFloat:
		f, ok := v.Value.(float32)
		if !ok {
			return nil, fmt.Errorf("%w: %s: float carried %T", ErrSNMPResponse, v.Name, v.Value)
		}
		return float64(f), nil
	case gosnmp.OpaqueDouble:
		f, ok := v.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s: double carried %T", ErrSNMPResponse, v.Name, v.Value)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %s: unsupported type %s", ErrSNMPResponse, v.Name, v.Type)
	}
}

func normalizeOID(oid string) string {
	if oid == "" || strings.HasPrefix(oid, ".") {
		return oid
	}
	return "." + oid
}

// ToFloat converts a decoded SNMP value to float64. Numeric strings are
// accepted since some agents report gauges as octet strings.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
