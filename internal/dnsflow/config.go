package dnsflow

// Default values for the three numeric configuration keys.
const (
	DefaultRequestFlood = 500
	DefaultStateMemcap  = 512 * 1024
	DefaultGlobalMemcap = 16 * 1024 * 1024
)

// Config is the process-wide numeric configuration surface. It is
// written once at startup via the setters below and read without
// synchronization afterward — the calling pipeline constructs one
// Config, configures it, and shares it read-only with every flow's
// accountant from then on.
type Config struct {
	requestFlood uint32
	stateMemcap  uint32
	globalMemcap uint64
}

// NewConfig returns a Config populated with the standard defaults.
func NewConfig() *Config {
	return &Config{
		requestFlood: DefaultRequestFlood,
		stateMemcap:  DefaultStateMemcap,
		globalMemcap: DefaultGlobalMemcap,
	}
}

// SetRequestFlood sets the "request-flood" key: the number of
// consecutive unreplied requests on one flow that trips flood detection.
func (c *Config) SetRequestFlood(v uint32) { c.requestFlood = v }

// SetStateMemcap sets the "state-memcap" key in bytes.
func (c *Config) SetStateMemcap(v uint32) { c.stateMemcap = v }

// SetGlobalMemcap sets the "global-memcap" key in bytes.
func (c *Config) SetGlobalMemcap(v uint64) { c.globalMemcap = v }

func (c *Config) RequestFlood() uint32 { return c.requestFlood }
func (c *Config) StateMemcap() uint32  { return c.stateMemcap }
func (c *Config) GlobalMemcap() uint64 { return c.globalMemcap }
