// ABOUTME: soundstage command line entry point
// ABOUTME: Builds a decode pipeline from a file and drains it to WAV or the speakers
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/internal/sink"
	"github.com/harperreed/soundstage-go/internal/source"
	"github.com/harperreed/soundstage-go/pkg/aacdec"
	"github.com/harperreed/soundstage-go/pkg/aacdec/faad"
	"github.com/harperreed/soundstage-go/pkg/media"
	"github.com/harperreed/soundstage-go/pkg/media/decode"
	"github.com/harperreed/soundstage-go/pkg/media/resample"
)

// version is set via ldflags at build time.
var version = "dev"

var CLI struct {
	Input       string `arg:"" help:"Input audio file (.aac, .mp3, .flac, .pcm)" optional:""`
	Output      string `help:"Output WAV file (default: input with .wav extension)"`
	Play        bool   `help:"Play on the default audio device instead of writing a file"`
	Rate        int    `help:"Resample output to this rate (0 keeps the native rate)"`
	PCMRate     int    `help:"Sample rate for raw .pcm input" default:"44100"`
	PCMChannels int    `help:"Channel count for raw .pcm input" default:"2"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address (e.g. :9091)"`
	Verbose     bool   `help:"Enable debug logging"`
	Version     bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("soundstage"),
		kong.Description("Decode compressed audio through a pull-based pipeline."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		fmt.Printf("soundstage %s\n", version)
		os.Exit(0)
	}

	logger := newLogger(CLI.Verbose)
	defer logger.Sync()

	if CLI.Input == "" {
		logger.Fatal("an input file is required")
	}

	logger = logger.With(zap.String("session", uuid.NewString()))

	if CLI.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", zap.String("addr", CLI.MetricsAddr))
			if err := http.ListenAndServe(CLI.MetricsAddr, mux); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	pipeline, err := buildPipeline(CLI.Input, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	if CLI.Rate > 0 {
		pipeline = resample.NewStage(pipeline, CLI.Rate, resample.WithLogger(logger))
	}

	if CLI.Play {
		if err := sink.NewPlayer(logger).Play(pipeline); err != nil {
			logger.Fatal("playback failed", zap.Error(err))
		}
		return
	}

	output := CLI.Output
	if output == "" {
		ext := filepath.Ext(CLI.Input)
		output = strings.TrimSuffix(CLI.Input, ext) + ".wav"
	}

	if err := sink.NewWAV(output, logger).Drain(pipeline); err != nil {
		logger.Fatal("decode failed", zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

// buildPipeline assembles a PCM-emitting source for the input file.
func buildPipeline(path string, logger *zap.Logger) (media.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aac", ".adts":
		src, err := source.NewADTSFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("adts stream opened",
			zap.Int("units", src.UnitCount()),
			zap.Int("sampleRate", src.Format().SampleRate))
		return aacdec.New(src, faad.New, aacdec.WithLogger(logger)), nil

	case ".mp3":
		src, err := source.NewMP3File(path)
		if err != nil {
			return nil, err
		}
		logger.Info("mp3 stream opened", zap.Int("sampleRate", src.Format().SampleRate))
		return src, nil

	case ".flac":
		src, err := source.NewFLACFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("flac stream opened",
			zap.Int("sampleRate", src.Format().SampleRate),
			zap.Int("channels", src.Format().Channels))
		return src, nil

	case ".pcm":
		return buildPCMPipeline(path, logger)

	default:
		return nil, fmt.Errorf("unsupported input format: %s", filepath.Ext(path))
	}
}

// buildPCMPipeline feeds a headerless 16-bit little-endian file
// through a chunk source and a passthrough decode stage, using the
// rate and channel count given on the command line.
func buildPCMPipeline(path string, logger *zap.Logger) (media.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcm: %w", err)
	}

	format := media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: CLI.PCMRate,
		Channels:   CLI.PCMChannels,
		BitDepth:   16,
	}
	chunks := source.NewChunk(f, format, 0)
	decoder, err := decode.New(format)
	if err != nil {
		f.Close()
		return nil, err
	}

	logger.Info("pcm stream opened",
		zap.Int("sampleRate", format.SampleRate),
		zap.Int("channels", format.Channels))
	return decode.NewStage(chunks, decoder, decode.WithStageLogger(logger)), nil
}
