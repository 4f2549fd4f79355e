package ocr

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

// EngineFactory builds an Engine from the OCR configuration.
type EngineFactory func(cfg Config, runner Runner, logger *slog.Logger) (Engine, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{}
)

// RegisterEngine makes an engine available by name. Engines register from init().
func RegisterEngine(name string, f EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// NewEngine returns the engine registered under name.
func NewEngine(name string, cfg Config, runner Runner, logger *slog.Logger) (Engine, error) {
	enginesMu.RLock()
	f, ok := engines[name]
	enginesMu.RUnlock()
	if !ok {
		return nil, common.ConfigurationFaultf("unknown OCR engine %q (available: %s)", name, strings.Join(Engines(), ", "))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return f(cfg.withDefaults(), runner, logger)
}

// Engines lists registered engine names.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	out := make([]string, 0, len(engines))
	for name := range engines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
