// Package config loads the TOML document plus CLI flags and
// environment variables that configure one of the four collector/
// importer binaries, merging them with CLI taking precedence over env,
// env over the TOML file.
package config

import (
	"github.com/google/uuid"
)

// InteractionMode selects how the translator synthesizes interaction
// edges between timelines.
type InteractionMode string

const (
	InteractionModeIPC             InteractionMode = "ipc"
	InteractionModeFullyLinearized InteractionMode = "fully-linearized"
)

// ChannelNameRule overrides a USER_EVENT's emitted name when its
// channel matches Channel.
type ChannelNameRule struct {
	Channel   string `toml:"channel"`
	EventName string `toml:"event-name"`
}

// FormattedStringNameRule overrides a USER_EVENT's emitted name when
// its format string matches FormattedString.
type FormattedStringNameRule struct {
	FormattedString string `toml:"formatted-string"`
	EventName       string `toml:"event-name"`
}

// FmtArgAttrKeysRule names attribute keys for a USER_EVENT's positional
// arguments when both Channel and FormatString match; AttributeKeys is
// matched to Args by array order.
type FmtArgAttrKeysRule struct {
	Channel       string   `toml:"channel"`
	FormatString  string   `toml:"format-string"`
	AttributeKeys []string `toml:"attribute-keys"`
}

// IngestConfig holds the standard Modality ingest options shared by all
// four binaries.
type IngestConfig struct {
	ProtocolParentURL string `toml:"protocol-parent-url"`
	AllowInsecureTLS  bool   `toml:"allow-insecure-tls"`
	AuthToken         string `toml:"auth-token"`
}

// PluginConfig holds the trace-recorder-specific metadata and routing
// rules common to all four binaries, grounded directly on
// original_source/src/config.rs's PluginConfig/array-of-table schema.
// The transport-variant-specific fields (file path, remote address,
// probe options, ...) live in the separate Import/TcpCollector/
// ItmCollector/RttCollector configs embedded into the per-variant
// Document types below, not here, since original_source's own fixtures
// show them flattened alongside these fields under one [metadata]
// table rather than nested under a sub-table.
type PluginConfig struct {
	RunID                   uuid.UUID       `toml:"run-id"`
	TimeDomain              string          `toml:"time-domain"`
	StartupTaskName         string          `toml:"startup-task-name"`
	SingleTaskTimeline      bool            `toml:"single-task-timeline"`
	FlattenISRTimelines     bool            `toml:"flatten-isr-timelines"`
	DisableTaskInteractions bool            `toml:"disable-task-interactions"`
	InteractionMode         InteractionMode `toml:"interaction-mode"`
	IgnoredObjectClasses    []string        `toml:"ignored-object-classes"`
	IncludeUnknownEvents    bool            `toml:"include-unknown-events"`
	DeviantEventIDBase      *uint16         `toml:"deviant-event-id-base"`
	CustomPrintfEventID     *uint16         `toml:"custom-printf-event-id"`

	// UseTimelineIDChannel enables the modality_timeline_id USER_EVENT
	// channel convention: a device may declare its own timeline id for
	// an object by name rather than relying on the derived run-id ⊕
	// object-handle id.
	UseTimelineIDChannel bool `toml:"use-timeline-id-channel"`

	CPUUtilizationMeasurementWindow Duration `toml:"cpu-utilization-measurement-window"`

	// UserEventChannel and UserEventFormatString are fallback toggles,
	// not values: when true, a USER_EVENT that matched none of the more
	// specific rules is named after its channel (UserEventChannel) or
	// its raw format string (UserEventFormatString), per spec.md §4.4's
	// override-priority chain.
	UserEventChannel              bool     `toml:"user-event-channel"`
	UserEventFormatString         bool     `toml:"user-event-format-string"`
	UserEventFormatStringChannels []string `toml:"user-event-format-string-channels"`

	UserEventChannelName         []ChannelNameRule         `toml:"user-event-channel-name"`
	UserEventFormattedStringName []FormattedStringNameRule `toml:"user-event-formatted-string-name"`
	UserEventFmtArgAttrKeys      []FmtArgAttrKeysRule      `toml:"user-event-fmt-arg-attr-keys"`
}

// DefaultCPUUtilizationMeasurementWindow matches spec.md's default of
// 500ms when a document omits the key.
const DefaultCPUUtilizationMeasurementWindow = Duration(500_000_000) // 500ms, in nanoseconds

// ImportConfig configures the file importer.
type ImportConfig struct {
	Protocol string `toml:"protocol"`
	File     string `toml:"file"`
}

// TcpCollectorConfig configures the TCP streaming collector.
type TcpCollectorConfig struct {
	DisableControlPlane bool     `toml:"disable-control-plane"`
	Restart             bool     `toml:"restart"`
	ConnectTimeout      Duration `toml:"connect-timeout"`
	Remote              string   `toml:"remote"`
}

// ItmCollectorConfig configures the ITM-over-probe collector.
type ItmCollectorConfig struct {
	DisableControlPlane bool    `toml:"disable-control-plane"`
	Restart             bool    `toml:"restart"`
	ElfFile             string  `toml:"elf-file"`
	CommandDataAddr     *uint64 `toml:"command-data-addr"`
	CommandLenAddr      *uint64 `toml:"command-len-addr"`
	StimulusPort        uint8   `toml:"stimulus-port"`
	ProbeSelector       string  `toml:"probe-selector"`
	Chip                string  `toml:"chip"`
	Protocol            string  `toml:"protocol"`
	SpeedKHz            uint32  `toml:"speed"`
	Core                uint32  `toml:"core"`
	ClkHz               uint32  `toml:"clk"`
	BaudRate            uint32  `toml:"baud"`
	Reset               bool    `toml:"reset"`
}

// DefaultItmCollectorConfig matches original_source/src/config.rs's
// #[serde(default = ...)] values for the ITM collector.
func DefaultItmCollectorConfig() ItmCollectorConfig {
	return ItmCollectorConfig{
		StimulusPort: 1,
		Protocol:     "swd",
		SpeedKHz:     4000,
		Core:         0,
	}
}

// RttCollectorConfig configures the RTT-over-probe collector. Not
// present in original_source/src/config.rs (the Rust implementation
// predates RTT support); modeled after ItmCollectorConfig plus
// spec.md §4.1's RTT-specific fields.
type RttCollectorConfig struct {
	DisableControlPlane bool     `toml:"disable-control-plane"`
	Restart             bool     `toml:"restart"`
	ElfFile             string   `toml:"elf-file"`
	ProbeSelector       string   `toml:"probe-selector"`
	Chip                string   `toml:"chip"`
	UpChannel           uint32   `toml:"up-channel"`
	DownChannel         uint32   `toml:"down-channel"`
	ControlBlockAddr    *uint64  `toml:"control-block-addr"`
	PollInterval        Duration `toml:"poll-interval"`
	BufferSize          uint32   `toml:"buffer-size"`
	AttachUnderReset    bool     `toml:"attach-under-reset"`
	SetupOnBreakpoint   string   `toml:"setup-on-breakpoint"`
	AttachTimeout       Duration `toml:"attach-timeout"`
}

// DefaultRttCollectorConfig mirrors DefaultItmCollectorConfig's role
// for the RTT variant.
func DefaultRttCollectorConfig() RttCollectorConfig {
	return RttCollectorConfig{
		PollInterval:  Duration(10_000_000),  // 10ms
		BufferSize:    4096,
		AttachTimeout: Duration(5_000_000_000), // 5s
	}
}

// ImporterMetadata is the [metadata] table shape for the file importer.
type ImporterMetadata struct {
	PluginConfig
	ImportConfig
}

// TcpCollectorMetadata is the [metadata] table shape for the TCP
// collector.
type TcpCollectorMetadata struct {
	PluginConfig
	TcpCollectorConfig
}

// ItmCollectorMetadata is the [metadata] table shape for the ITM
// collector.
type ItmCollectorMetadata struct {
	PluginConfig
	ItmCollectorConfig
}

// RttCollectorMetadata is the [metadata] table shape for the RTT
// collector.
type RttCollectorMetadata struct {
	PluginConfig
	RttCollectorConfig
}

// ImporterDocument is the full TOML document for the file importer.
type ImporterDocument struct {
	Ingest   IngestConfig     `toml:"ingest"`
	Metadata ImporterMetadata `toml:"metadata"`
}

// TcpCollectorDocument is the full TOML document for the TCP collector.
type TcpCollectorDocument struct {
	Ingest   IngestConfig         `toml:"ingest"`
	Metadata TcpCollectorMetadata `toml:"metadata"`
}

// ItmCollectorDocument is the full TOML document for the ITM collector.
type ItmCollectorDocument struct {
	Ingest   IngestConfig         `toml:"ingest"`
	Metadata ItmCollectorMetadata `toml:"metadata"`
}

// RttCollectorDocument is the full TOML document for the RTT collector.
type RttCollectorDocument struct {
	Ingest   IngestConfig         `toml:"ingest"`
	Metadata RttCollectorMetadata `toml:"metadata"`
}
