package inspector

import "sync/atomic"

// config is the process-wide configuration record described in spec.md
// §9: the event queue name and the trace-disabled flag. It is held
// behind an atomic.Pointer snapshot rather than a mutex-guarded struct,
// matching the teacher eventloop package's preference for lock-free
// reads of rarely-written configuration over RWMutex.
type config struct {
	queueName     string
	traceDisabled bool
}

const defaultQueueName = "inspector-trace"

var (
	processConfig atomic.Pointer[config]
	configLocked  atomic.Bool
)

func init() {
	processConfig.Store(&config{queueName: defaultQueueName})
}

func loadConfig() *config { return processConfig.Load() }

func mutateConfig(f func(config) config) {
	for {
		old := loadConfig()
		next := f(*old)
		if processConfig.CompareAndSwap(old, &next) {
			return
		}
	}
}

// lockConfig is called on first OpenOrCreate, after which
// SetEventQueueName must fail: spec.md §6 describes the event queue name
// as process-wide, consulted once before first use.
func lockConfig() { configLocked.Store(true) }

// SetEventQueueName overrides the default shared-memory region name that
// OpenOrCreate consults when called with an empty name. It returns
// ErrConfigLocked once any Queue has already been opened in this
// process.
func SetEventQueueName(name string) error {
	if configLocked.Load() {
		return ErrConfigLocked
	}
	mutateConfig(func(c config) config {
		c.queueName = name
		return c
	})
	return nil
}

// EventQueueName returns the currently configured default event queue
// name.
func EventQueueName() string { return loadConfig().queueName }
