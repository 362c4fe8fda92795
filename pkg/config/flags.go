package config

import "github.com/spf13/pflag"

// RegisterFlags declares the CLI flags on a cobra/pflag flag set.
// Zero values here are placeholders; SourceFromFlags only picks up flags the
// user actually set, so defaults still come from the resolver chain.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagBrokerURL, "", HelpBrokerURL)
	fs.String(FlagBrokerClientID, "", HelpBrokerClientID)
	fs.String(FlagBrokerUsername, "", HelpBrokerUsername)
	fs.String(FlagBrokerPassword, "", HelpBrokerPassword)
	fs.Int(FlagNetworkHandshakeTimeoutSeconds, 0, HelpHandshakeTimeoutSeconds)
	fs.Int(FlagNetworkInitialBackoffSeconds, 0, HelpInitialBackoffSeconds)
	fs.Int(FlagNetworkMaxBackoffSeconds, 0, HelpMaxBackoffSeconds)
	fs.Float64(FlagNetworkBackoffJitter, 0, HelpBackoffJitter)
	fs.Int(FlagNetworkMaxReconnectAttempts, 0, HelpMaxReconnectAttempts)
	fs.Int(FlagNetworkHeartbeatSeconds, 0, HelpHeartbeatSeconds)
	fs.String(FlagMetricsFetchURL, "", HelpMetricsFetchURL)
}

// SourceFromFlags copies explicitly set flags into a FlagSource so CLI values
// take precedence over environment and file configuration.
func SourceFromFlags(fs *pflag.FlagSet) *FlagSource {
	src := NewFlagSource()

	setString := func(flag, key string) {
		if fs.Changed(flag) {
			if v, err := fs.GetString(flag); err == nil {
				src.Set(key, v)
			}
		}
	}
	setInt := func(flag, key string) {
		if fs.Changed(flag) {
			if v, err := fs.GetInt(flag); err == nil {
				src.Set(key, v)
			}
		}
	}
	setFloat := func(flag, key string) {
		if fs.Changed(flag) {
			if v, err := fs.GetFloat64(flag); err == nil {
				src.Set(key, v)
			}
		}
	}

	setString(FlagBrokerURL, KeyBrokerURL)
	setString(FlagBrokerClientID, KeyBrokerClientID)
	setString(FlagBrokerUsername, KeyBrokerUsername)
	setString(FlagBrokerPassword, KeyBrokerPassword)
	setInt(FlagNetworkHandshakeTimeoutSeconds, KeyNetworkHandshakeTimeoutSeconds)
	setInt(FlagNetworkInitialBackoffSeconds, KeyNetworkInitialBackoffSeconds)
	setInt(FlagNetworkMaxBackoffSeconds, KeyNetworkMaxBackoffSeconds)
	setFloat(FlagNetworkBackoffJitter, KeyNetworkBackoffJitter)
	setInt(FlagNetworkMaxReconnectAttempts, KeyNetworkMaxReconnectAttempts)
	setInt(FlagNetworkHeartbeatSeconds, KeyNetworkHeartbeatSeconds)
	setString(FlagMetricsFetchURL, KeyMetricsFetchURL)

	return src
}
