package config

import "fmt"

func (c *Config) validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("%s is required", KeyBrokerURL)
	}
	if c.Network.MaxReconnectAttempts < 1 {
		return fmt.Errorf("%s must be at least 1", KeyNetworkMaxReconnectAttempts)
	}
	if c.Network.InitialBackoffSeconds < 1 {
		return fmt.Errorf("%s must be at least 1", KeyNetworkInitialBackoffSeconds)
	}
	if c.Network.MaxBackoffSeconds < c.Network.InitialBackoffSeconds {
		return fmt.Errorf("%s must not be below %s", KeyNetworkMaxBackoffSeconds, KeyNetworkInitialBackoffSeconds)
	}
	if c.Network.BackoffJitter < 0 || c.Network.BackoffJitter >= 1 {
		return fmt.Errorf("%s must be in [0,1)", KeyNetworkBackoffJitter)
	}
	if c.Limits.WarningLog < 1 || c.Limits.CompletedLog < 1 || c.Limits.GridWindow < 1 {
		return fmt.Errorf("cache limits must be at least 1")
	}
	w := c.Metrics.Weights
	if w.ActiveTasks < 0 || w.Completion < 0 || w.ErrorFree < 0 {
		return fmt.Errorf("efficiency weights must be non-negative")
	}
	if w.ActiveTasks+w.Completion+w.ErrorFree == 0 {
		return fmt.Errorf("at least one efficiency weight must be positive")
	}
	return nil
}
