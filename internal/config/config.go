package config

import "time"

// Config holds server configuration values.
type Config struct {
	// Addr is the TCP listen address for the line protocol.
	Addr string `mapstructure:"addr" yaml:"addr"`
	// HTTPAddr hosts the WebSocket transport and /health. Empty
	// disables the HTTP listener.
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
	// SnapshotPath is the SQLite file state is saved to at shutdown
	// and restored from at startup.
	SnapshotPath string `mapstructure:"snapshot_path" yaml:"snapshot_path"`

	HistoryRetention time.Duration `mapstructure:"history_retention" yaml:"history_retention"`
	SweepPeriod      time.Duration `mapstructure:"sweep_period" yaml:"sweep_period"`
	ReplayDepth      int           `mapstructure:"replay_depth" yaml:"replay_depth"`
	ClientBuffer     int           `mapstructure:"client_buffer" yaml:"client_buffer"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              "127.0.0.1:8000",
		HTTPAddr:          "",
		SnapshotPath:      "server_state.db",
		HistoryRetention:  time.Hour,
		SweepPeriod:       time.Minute,
		ReplayDepth:       20,
		ClientBuffer:      256,
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}
