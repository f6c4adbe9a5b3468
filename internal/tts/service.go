// Package tts ties the front-end, the waveform engine and audio
// post-processing into one synthesis service.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/go-jtalk/internal/audio"
	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/engine"
	"github.com/example/go-jtalk/internal/frontend"
	"github.com/example/go-jtalk/internal/text"
	"github.com/example/go-jtalk/internal/tokenizer"
)

var (
	// ErrNoEngine is returned by synthesis calls when the service was built
	// without a waveform backend.
	ErrNoEngine = errors.New("no waveform backend configured")
	// ErrNoVoice is returned when neither the request nor the config names
	// a voice.
	ErrNoVoice = errors.New("no voice selected")
	// ErrUnknownVoice is returned for a voice that is neither a manifest id
	// nor a voice file path.
	ErrUnknownVoice = errors.New("unknown voice id")
)

// PCMChunk is one synthesized chunk sent by SynthesizeStream.
type PCMChunk struct {
	Samples    []float32
	SampleRate int
	ChunkIndex int
	Final      bool
}

type Service struct {
	frontend     *frontend.Frontend
	counter      text.Counter
	engine       engine.Engine
	voices       *VoiceManager
	defaultVoice string
	maxMorphemes int
	gapMS        int
	hooks        []audio.Hook
	sem          chan struct{}
	observer     frontend.Observer
	logger       *slog.Logger
}

// Option configures NewService.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHooks appends post-processing applied to every synthesized utterance.
func WithHooks(hooks ...audio.Hook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hooks...) }
}

// WithEngine replaces the engine built from config.
func WithEngine(e engine.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithObserver is passed through to the front-end.
func WithObserver(o frontend.Observer) Option {
	return func(s *Service) { s.observer = o }
}

func NewService(cfg config.Config, opts ...Option) (*Service, error) {
	backend, err := config.NormalizeBackend(cfg.Engine.Backend)
	if err != nil {
		return nil, err
	}

	lex, err := tokenizer.DefaultLexicon()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.AccentLexicon != "" {
		extra, err := tokenizer.LoadLexicon(cfg.Paths.AccentLexicon)
		if err != nil {
			return nil, err
		}
		lex.Merge(extra)
	}

	kopts := []tokenizer.Option{tokenizer.WithLexicon(lex)}
	if cfg.Paths.UserDictionary != "" {
		kopts = append(kopts, tokenizer.WithUserDictionary(cfg.Paths.UserDictionary))
	}

	s := &Service{
		defaultVoice: cfg.Engine.Voice,
		maxMorphemes: cfg.Frontend.MaxMorphemes,
		gapMS:        cfg.Frontend.ChunkGapMS,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	kopts = append(kopts, tokenizer.WithLogger(s.logger))

	tok, err := tokenizer.NewKagome(kopts...)
	if err != nil {
		return nil, err
	}
	s.counter = tok
	s.frontend = frontend.New(tok, frontend.WithLogger(s.logger), frontend.WithObserver(s.observer))

	if s.engine == nil && backend == config.BackendHTSEngine {
		s.engine = engine.NewCLI(cfg.Engine.CLIPath, EngineParams(cfg.Engine))
	}
	if s.engine != nil {
		if err := frontend.CheckFormat(s.engine.LabelFormat()); err != nil {
			return nil, err
		}
	}

	if cfg.Paths.VoicesManifest != "" {
		mgr, err := NewVoiceManager(cfg.Paths.VoicesManifest)
		switch {
		case err == nil:
			s.voices = mgr
		case errors.Is(err, os.ErrNotExist):
			s.logger.Debug("voice manifest not found; voices must be given as paths",
				slog.String("path", cfg.Paths.VoicesManifest))
		default:
			return nil, err
		}
	}

	if cfg.Engine.Concurrency > 0 {
		s.sem = make(chan struct{}, cfg.Engine.Concurrency)
	}

	return s, nil
}

// EngineParams maps engine config to hts_engine parameters.
func EngineParams(c config.EngineConfig) engine.Params {
	return engine.Params{
		SamplingRate: c.SamplingRate,
		FramePeriod:  c.FramePeriod,
		Alpha:        c.Alpha,
		Beta:         c.Beta,
		Speed:        c.Speed,
		HalfTone:     c.HalfTone,
		Threshold:    c.Threshold,
		GVSpectrum:   c.GVSpectrum,
		GVLogF0:      c.GVLogF0,
		Volume:       c.Volume,
	}
}

// Analyze runs the front-end over the whole text.
func (s *Service) Analyze(ctx context.Context, input string) (*frontend.Result, error) {
	return s.frontend.Run(ctx, input)
}

// Labels returns the full-context labels for input.
func (s *Service) Labels(ctx context.Context, input string) ([]string, error) {
	return s.frontend.Labels(ctx, input)
}

// Voices lists the voices from the manifest, if one was loaded.
func (s *Service) Voices() []Voice {
	if s.voices == nil {
		return nil
	}
	return s.voices.ListVoices()
}

// ResolveVoice maps a voice id or file path to the file handed to the engine.
// An empty voice selects the configured default.
func (s *Service) ResolveVoice(voice string) (string, error) {
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = strings.TrimSpace(s.defaultVoice)
	}
	if voice == "" {
		return "", ErrNoVoice
	}

	if s.voices != nil && s.voices.Has(voice) {
		return s.voices.ResolvePath(voice)
	}

	if looksLikeVoicePath(voice) {
		if _, err := os.Stat(voice); err != nil {
			return "", fmt.Errorf("voice file: %w", err)
		}
		return voice, nil
	}

	return "", fmt.Errorf("%w %q", ErrUnknownVoice, voice)
}

func looksLikeVoicePath(v string) bool {
	return strings.HasSuffix(strings.ToLower(v), ".htsvoice") || strings.ContainsRune(v, filepath.Separator)
}

// Synthesize returns a WAV file for input.
func (s *Service) Synthesize(ctx context.Context, input, voice string) ([]byte, error) {
	pcm, err := s.SynthesizePCM(ctx, input, voice)
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAV(pcm)
}

// SynthesizePCM splits input into chunks, synthesizes each and joins them.
func (s *Service) SynthesizePCM(ctx context.Context, input, voice string) (audio.PCM, error) {
	var parts []audio.PCM
	err := s.run(ctx, input, voice, func(_ int, _ bool, pcm audio.PCM) error {
		parts = append(parts, pcm)
		return nil
	})
	if err != nil {
		return audio.PCM{}, err
	}

	joined, err := audio.Concat(float64(s.gapMS), parts...)
	if err != nil {
		return audio.PCM{}, err
	}
	joined.Samples = audio.ApplyHooks(joined.Samples, s.hooks...)
	return joined, nil
}

// SynthesizeStream sends one PCMChunk per text chunk as soon as it is ready.
// out is closed when SynthesizeStream returns. Hooks are not applied.
func (s *Service) SynthesizeStream(ctx context.Context, input, voice string, out chan<- PCMChunk) error {
	defer close(out)

	return s.run(ctx, input, voice, func(i int, final bool, pcm audio.PCM) error {
		select {
		case out <- PCMChunk{Samples: pcm.Samples, SampleRate: pcm.SampleRate, ChunkIndex: i, Final: final}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// BatchResult is the outcome of one SynthesizeBatch input.
type BatchResult struct {
	Index int
	WAV   []byte
	Err   error
}

// SynthesizeBatch synthesizes inputs with at most workers running at once
// (workers < 1 means one). Results are returned in input order; a failed
// input does not stop the others.
func (s *Service) SynthesizeBatch(ctx context.Context, inputs []string, voice string, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(inputs))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, in := range inputs {
		results[i].Index = i

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, in string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].WAV, results[i].Err = s.Synthesize(ctx, in, voice)
		}(i, in)
	}
	wg.Wait()

	return results
}

func (s *Service) run(ctx context.Context, input, voice string, emit func(i int, final bool, pcm audio.PCM) error) error {
	if s.engine == nil {
		return ErrNoEngine
	}
	voicePath, err := s.ResolveVoice(voice)
	if err != nil {
		return err
	}

	chunks, err := text.PrepareChunks(input, s.counter, s.maxMorphemes)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		labels, err := s.frontend.Labels(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i+1, err)
		}

		wav, err := s.synthesizeLabels(ctx, labels, voicePath)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i+1, err)
		}

		pcm, err := audio.DecodeWAV(wav)
		if err != nil {
			return fmt.Errorf("chunk %d: decode engine output: %w", i+1, err)
		}

		s.logger.Debug("chunk synthesized",
			slog.Int("chunk", i+1),
			slog.Int("chunks", len(chunks)),
			slog.Int("morphemes", chunk.NumMorphemes),
			slog.Int("labels", len(labels)),
			slog.Duration("audio", pcm.Duration()),
		)

		if err := emit(i, i == len(chunks)-1, pcm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) synthesizeLabels(ctx context.Context, labels []string, voicePath string) ([]byte, error) {
	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.engine.Synthesize(ctx, labels, voicePath)
}
