package arch_test

import "testing"

// layers assigns each internal package to a numeric layer. Lower layers are
// more foundational; higher layers may depend on lower ones but not vice versa.
// A package at layer N may only import packages at layer N or below.
var layers = map[string]int{
	"angle":  0,
	"ansi":   0,
	"config": 0,
	"dag":    0,
	"watch":  0,

	"chart":   1,
	"logging": 1,

	"aspect":    2,
	"cycle":     2,
	"ephemeris": 2,
	"house":     2,

	"saham": 3,
	"yoga":  3,

	"catalog": 4,

	"report": 5,

	"metrics":   6,
	"telemetry": 6,

	"ui": 7,
}

// TestDependencyLayering verifies that no internal package imports a package
// from a higher layer, so analysis code never reaches up into the CLI-facing
// packages (metrics, telemetry, ui).
func TestDependencyLayering(t *testing.T) {
	t.Parallel()

	for _, p := range packages(t) {
		layer, ok := layers[p.name]
		if !ok {
			t.Errorf("package %s has no layer assignment; add it to the layers map", p.name)
			continue
		}
		for _, imp := range p.imports() {
			if l, ok := layers[imp]; ok && l > layer {
				t.Errorf("layer violation: %s (layer %d) imports %s (layer %d)", p.name, layer, imp, l)
			}
		}
	}
}

// TestLayersMatchPackages keeps the layers map free of packages that no
// longer exist.
func TestLayersMatchPackages(t *testing.T) {
	t.Parallel()

	present := make(map[string]bool)
	for _, p := range packages(t) {
		present[p.name] = true
	}
	for name := range layers {
		if !present[name] {
			t.Errorf("layers lists %s but internal/%s does not exist", name, name)
		}
	}
}
