package production

import (
	"fmt"
	"sort"

	"github.com/mesflow/gridsync/pkg/gridsync"
)

// Registry maps screen names to their entity configurations.
func Registry() map[string]gridsync.EntityConfig {
	return map[string]gridsync.EntityConfig{
		"materials":   Materials(),
		"bom-items":   BomItems(),
		"work-orders": WorkOrders(),
		"defects":     Defects(),
	}
}

// Config resolves one entity configuration by name.
func Config(name string) (gridsync.EntityConfig, error) {
	cfg, ok := Registry()[name]
	if !ok {
		return gridsync.EntityConfig{}, fmt.Errorf("unknown entity %q (known: %v)", name, Names())
	}
	return cfg, nil
}

// Names lists the registered entities in stable order.
func Names() []string {
	names := make([]string, 0, len(Registry()))
	for name := range Registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
