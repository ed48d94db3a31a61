package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			WebhookPath: "/webhook/messenger",
		},
		Messenger: MessengerConfig{
			Greeting: "Welcome! How can we help you today?",
		},
		Store: StoreConfig{
			DBPath: "~/.pagebridge/pagebridge.db",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}
