package config

import "time"

// DefaultGeneratorEndpoint is the hosted prompt-generation workflow.
const DefaultGeneratorEndpoint = "https://eo61pxe93i0terz.m.pipedream.net"

// GeneratorConfig holds the prompt-generation service settings
type GeneratorConfig struct {
	// Endpoint receives the POSTed answer set
	Endpoint string `json:"endpoint"`

	// TimeoutMS bounds a whole request at the transport layer; 0 disables it
	TimeoutMS int `json:"timeoutMs"`
}

// DefaultGeneratorConfig returns the generator configuration from the environment
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Endpoint:  getEnv("GENERATOR_ENDPOINT", DefaultGeneratorEndpoint),
		TimeoutMS: getEnvAsInt("GENERATOR_TIMEOUT_MS", 60000),
	}
}

// IsEnabled returns true if an endpoint is configured
func (c *GeneratorConfig) IsEnabled() bool {
	return c.Endpoint != ""
}

// Timeout returns TimeoutMS as a duration
func (c *GeneratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
