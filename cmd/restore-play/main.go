package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-restore/degrade"
	"github.com/cwbudde/algo-restore/internal/audio"
	"github.com/cwbudde/algo-restore/internal/wavio"
	"github.com/cwbudde/algo-restore/preset"
	"github.com/cwbudde/algo-restore/restore"
	"github.com/cwbudde/algo-restore/suggest"
)

func main() {
	input := flag.String("input", "", "Input WAV path (empty plays a synthetic degraded demo track)")
	presetPath := flag.String("preset", "", "Preset JSON path (optional)")
	useSuggest := flag.Bool("suggest", false, "Analyze the track and apply suggested settings before playback")
	monitorDry := flag.Bool("dry", false, "Monitor the untouched input instead of the processed signal")
	startS := flag.Float64("start", 0, "Playback start position in seconds")
	demoDuration := flag.Float64("demo-duration", 8.0, "Length of the synthetic demo track in seconds")
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
		sug := suggest.Resolve(context.Background(), suggest.NewAnalyzer(buf), *input, suggest.DefaultTimeout)
		settings = restore.Merge(settings, &sug.Settings)
		fmt.Printf("Suggestion: %s\n", sug.Insight)
	}

	engine, err := restore.NewEngine(buf, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building engine: %v\n", err)
		os.Exit(1)
	}
	engine.SetMonitor(*monitorDry)

	player, err := audio.NewPlayer(engine, engine.SampleRate(), engine.Channels())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()

	total := float64(buf.Frames()) / float64(buf.SampleRate())
	fmt.Printf("Playing %.2f s at %d Hz...\n", total, engine.SampleRate())

	engine.Play(int(*startS * float64(engine.SampleRate())))
	player.Start()
	for engine.State() == restore.Playing {
		fmt.Printf("\r%6.2f / %.2f s   GR %5.1f dB", engine.Position(), total, engine.GainReductionDB())
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Printf("\r%6.2f / %.2f s   done          \n", engine.Position(), total)
}
