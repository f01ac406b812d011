// Environment response preview tool. Sweeps each environment factor across
// its response curve and prints the resulting stress and expression scale,
// so a growing environment can be tuned before committing to a long run.
//
// Usage: go run ./cmd/envpreview [-factor temperature] [-output sweep.csv]
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// factorOrder matches the engine's stress iteration order.
var factorOrder = [...]string{"temperature", "humidity", "light", "co2", "nutrients"}

const barWidth = 40

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	factor := flag.String("factor", "all", "Factor to sweep (temperature|humidity|light|co2|nutrients|all)")
	steps := flag.Int("steps", 21, "Sweep steps per factor")
	outputPath := flag.String("output", "", "CSV output path (empty = stdout tables only)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	if *steps < 2 {
		log.Fatalf("--steps %d: need at least 2", *steps)
	}

	var sweep []string
	if *factor == "all" {
		sweep = factorOrder[:]
	} else {
		if _, ok := cfg.Environment.Response[*factor]; !ok {
			log.Fatalf("factor %q has no response curve", *factor)
		}
		sweep = []string{*factor}
	}

	var writer *csv.Writer
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		writer = csv.NewWriter(f)
		defer writer.Flush()
		writer.Write([]string{"factor", "value", "stress", "scale"})
	}

	base := cfg.Derived.Environment
	fmt.Printf("Baseline profile: temperature=%.1f humidity=%.2f light=%.2f co2=%.0f nutrients=%.2f\n",
		base.Temperature, base.Humidity, base.Light, base.CO2, base.Nutrients)
	fmt.Printf("Baseline stress: %.4f (max expression penalty %.2f)\n",
		garden.Stress(cfg, base), cfg.Environment.MaxPenalty)

	for _, name := range sweep {
		curve, ok := cfg.Environment.Response[name]
		if !ok || curve.Tolerance <= 0 || curve.Weight <= 0 {
			fmt.Printf("\n%s: no usable response curve, skipped\n", name)
			continue
		}
		sweepFactor(cfg, writer, name, curve, *steps)
	}
}

// sweepFactor varies one factor from two tolerance widths below optimum to
// two above, holding the rest of the profile fixed, and prints a bar per
// step. Bar length tracks the expression scale surviving the stress.
func sweepFactor(cfg *config.Config, writer *csv.Writer, name string, curve config.ResponseCurve, steps int) {
	low := curve.Optimal - 2*curve.Tolerance
	if low < 0 {
		low = 0
	}
	high := curve.Optimal + 2*curve.Tolerance

	fmt.Printf("\n%s (optimal %.2f, tolerance %.2f, weight %.2f)\n",
		name, curve.Optimal, curve.Tolerance, curve.Weight)

	for i := 0; i < steps; i++ {
		value := low + (high-low)*float64(i)/float64(steps-1)
		env := withFactor(cfg.Derived.Environment, name, value)
		stress := garden.Stress(cfg, env)
		scale := 1 - stress*cfg.Environment.MaxPenalty

		bar := strings.Repeat("#", int(scale*barWidth+0.5))
		marker := " "
		if i > 0 && low+(high-low)*float64(i-1)/float64(steps-1) < curve.Optimal && value >= curve.Optimal {
			marker = "*" // optimum falls between this step and the previous
		}
		fmt.Printf("  %s%9.2f  stress %.4f  scale %.3f  %s\n", marker, value, stress, scale, bar)

		if writer != nil {
			writer.Write([]string{
				name,
				fmt.Sprintf("%.4f", value),
				fmt.Sprintf("%.6f", stress),
				fmt.Sprintf("%.6f", scale),
			})
		}
	}
}

// withFactor returns the environment with one factor reading replaced.
func withFactor(env genetics.Environment, name string, value float64) genetics.Environment {
	switch name {
	case "temperature":
		env.Temperature = value
	case "humidity":
		env.Humidity = value
	case "light":
		env.Light = value
	case "co2":
		env.CO2 = value
	case "nutrients":
		env.Nutrients = value
	}
	return env
}
