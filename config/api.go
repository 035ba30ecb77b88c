package config

// APIConfig enables the read-only bin status API of the watch command.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the API.
	Addr string `json:"addr"`
}
