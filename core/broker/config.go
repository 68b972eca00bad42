package broker

import "fmt"

// Config locates the two broker instances. Hosts are required; an unreachable
// broker at boot is a fatal init failure, so there are no silent fallbacks.
type Config struct {
	HighHost string `env:"BROKER_HOST_HIGH,required"`
	HighPort int    `env:"BROKER_PORT_HIGH" envDefault:"6379"`
	LowHost  string `env:"BROKER_HOST_LOW,required"`
	LowPort  int    `env:"BROKER_PORT_LOW" envDefault:"6379"`
}

// HighURL returns the connection URL of the high-priority instance.
func (c Config) HighURL() string {
	return fmt.Sprintf("redis://%s:%d/0", c.HighHost, c.HighPort)
}

// LowURL returns the connection URL of the low-priority instance.
func (c Config) LowURL() string {
	return fmt.Sprintf("redis://%s:%d/0", c.LowHost, c.LowPort)
}
