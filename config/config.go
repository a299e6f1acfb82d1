// Package config defines the typed shape of node and channel
// configuration. Loading these from YAML, environment variables, or CLI
// flags is an external concern left to the harness — this package only
// carries the struct shapes and their defaults, per spec.md's config
// table.
package config

// NodeType selects which state machine variant a node runs.
type NodeType string

const (
	Obu NodeType = "obu"
	Rsu NodeType = "rsu"
)

// NodeConfig is the conceptual per-node configuration described in
// spec.md §6. yaml tags are present so a harness-owned loader can bind
// against this shape; no parsing happens in this package.
type NodeConfig struct {
	NodeType         NodeType `yaml:"node_type"`
	BindInterface    string   `yaml:"bind_interface"`
	TapName          string   `yaml:"tap_name,omitempty"`
	IP               string   `yaml:"ip,omitempty"`
	MTU              int      `yaml:"mtu"`
	HelloHistory     int      `yaml:"hello_history"`
	HelloPeriodicity int      `yaml:"hello_periodicity_ms,omitempty"`
	CachedCandidates int      `yaml:"cached_candidates,omitempty"`
	EnableEncryption bool     `yaml:"enable_encryption"`
}

// Default field values per spec.md §6.
const (
	DefaultMTU              = 1436
	DefaultHelloHistory     = 10
	DefaultCachedCandidates = 3
)

// Defaults returns a NodeConfig with every optional field set to its
// spec-mandated default. Callers still must set NodeType, BindInterface,
// and (for RSUs) HelloPeriodicity.
func Defaults() NodeConfig {
	return NodeConfig{
		MTU:              DefaultMTU,
		HelloHistory:     DefaultHelloHistory,
		CachedCandidates: DefaultCachedCandidates,
		EnableEncryption: false,
	}
}

// ChannelParameters is the conceptual per-link simulator configuration.
type ChannelParameters struct {
	LatencyMS int     `yaml:"latency_ms"`
	Loss      float64 `yaml:"loss"`
	JitterMS  int     `yaml:"jitter_ms,omitempty"`
}
