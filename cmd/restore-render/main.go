package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-restore/degrade"
	"github.com/cwbudde/algo-restore/internal/wavio"
	"github.com/cwbudde/algo-restore/preset"
	"github.com/cwbudde/algo-restore/restore"
	"github.com/cwbudde/algo-restore/suggest"
)

func main() {
	input := flag.String("input", "", "Input WAV path (empty renders a synthetic degraded demo track)")
	output := flag.String("output", "restored.wav", "Output WAV path")
	presetPath := flag.String("preset", "", "Preset JSON path (optional)")
	useSuggest := flag.Bool("suggest", false, "Analyze the track and apply suggested settings on top of the preset")
	suggestTimeout := flag.Duration("suggest-timeout", suggest.DefaultTimeout, "Suggestion analysis timeout")
	demoDuration := flag.Float64("demo-duration", 4.0, "Length of the synthetic demo track in seconds")
	flag.Parse()

	var (
		buf *restore.SampleBuffer
		err error
	)
	if *input != "" {
		buf, err = wavio.ReadFile(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", *input, err)
			os.Exit(1)
		}
	} else {
		cfg := degrade.DefaultConfig()
		cfg.DurationS = *demoDuration
		buf, err = degrade.Generate(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error synthesizing demo track: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("No input given; synthesized a %.1f s degraded demo track\n", *demoDuration)
	}

	settings := restore.Defaults()
	if *presetPath != "" {
		settings, err = preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	if *useSuggest {
		sug := suggest.Resolve(context.Background(), suggest.NewAnalyzer(buf), *input, *suggestTimeout)
		settings = restore.Merge(settings, &sug.Settings)
		fmt.Printf("Suggestion: %s\n", sug.Insight)
	}

	seconds := float64(buf.Frames()) / float64(buf.SampleRate())
	fmt.Printf("Rendering %.2f s, %d channels at %d Hz...\n", seconds, buf.Channels(), buf.SampleRate())

	start := time.Now()
	out, err := restore.NewRenderer().Render(buf, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	if err := wavio.WriteFile(*output, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (peak %.3f, %.2fx realtime)\n",
		*output, out.Peak(), seconds/time.Since(start).Seconds())
}
