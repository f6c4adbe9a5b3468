package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
}

type PathsConfig struct {
	VoicesManifest string `mapstructure:"voices_manifest"`
	AccentLexicon  string `mapstructure:"accent_lexicon"`
	UserDictionary string `mapstructure:"user_dictionary"`
}

// EngineConfig selects the waveform backend and its voice parameters. Zero
// numeric values leave the voice's own setting in place.
type EngineConfig struct {
	Backend      string  `mapstructure:"backend"`
	CLIPath      string  `mapstructure:"cli_path"`
	Voice        string  `mapstructure:"voice"`
	SamplingRate int     `mapstructure:"sampling_rate"`
	FramePeriod  int     `mapstructure:"frame_period"`
	Alpha        float64 `mapstructure:"alpha"`
	Beta         float64 `mapstructure:"beta"`
	Speed        float64 `mapstructure:"speed"`
	HalfTone     float64 `mapstructure:"half_tone"`
	Threshold    float64 `mapstructure:"threshold"`
	GVSpectrum   float64 `mapstructure:"gv_spectrum"`
	GVLogF0      float64 `mapstructure:"gv_lf0"`
	Volume       float64 `mapstructure:"volume"`
	Concurrency  int     `mapstructure:"concurrency"`
}

type FrontendConfig struct {
	MaxMorphemes int `mapstructure:"max_morphemes"`
	ChunkGapMS   int `mapstructure:"chunk_gap_ms"`
}

type ServerConfig struct {
	ListenAddr      string   `mapstructure:"listen_addr"`
	Workers         int      `mapstructure:"workers"`
	MaxTextBytes    int      `mapstructure:"max_text_bytes"`
	RequestTimeout  int      `mapstructure:"request_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			VoicesManifest: "voices/manifest.json",
			AccentLexicon:  "",
			UserDictionary: "",
		},
		Engine: EngineConfig{
			Backend:     BackendHTSEngine,
			CLIPath:     "hts_engine",
			Voice:       "",
			Speed:       1.0,
			Concurrency: 1,
		},
		Frontend: FrontendConfig{
			MaxMorphemes: 64,
			ChunkGapMS:   100,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxTextBytes:    4096,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
			CORSOrigins:     nil,
		},
		LogLevel: "info",
	}
}

// bindings maps config keys to the flags RegisterFlags defines for them.
var bindings = []struct {
	key, flag string
}{
	{"paths.voices_manifest", "paths-voices-manifest"},
	{"paths.accent_lexicon", "paths-accent-lexicon"},
	{"paths.user_dictionary", "paths-user-dictionary"},
	{"engine.backend", "backend"},
	{"engine.cli_path", "engine-cli-path"},
	{"engine.voice", "voice"},
	{"engine.sampling_rate", "engine-sampling-rate"},
	{"engine.frame_period", "engine-frame-period"},
	{"engine.alpha", "engine-alpha"},
	{"engine.beta", "engine-beta"},
	{"engine.speed", "speed"},
	{"engine.half_tone", "half-tone"},
	{"engine.threshold", "engine-threshold"},
	{"engine.gv_spectrum", "engine-gv-spectrum"},
	{"engine.gv_lf0", "engine-gv-lf0"},
	{"engine.volume", "volume"},
	{"engine.concurrency", "engine-concurrency"},
	{"frontend.max_morphemes", "max-morphemes"},
	{"frontend.chunk_gap_ms", "chunk-gap-ms"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "workers"},
	{"server.max_text_bytes", "max-text-bytes"},
	{"server.request_timeout", "request-timeout"},
	{"server.shutdown_timeout", "shutdown-timeout"},
	{"server.cors_origins", "cors-origins"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-voices-manifest", defaults.Paths.VoicesManifest, "Path to the voice manifest (JSON)")
	fs.String("paths-accent-lexicon", defaults.Paths.AccentLexicon, "Accent lexicon CSV merged over the built-in one")
	fs.String("paths-user-dictionary", defaults.Paths.UserDictionary, "Kagome user dictionary")
	fs.String("backend", defaults.Engine.Backend, "Waveform backend: hts-engine|none")
	fs.String("engine-cli-path", defaults.Engine.CLIPath, "Path to hts_engine executable")
	fs.String("voice", defaults.Engine.Voice, "Voice id from the manifest or .htsvoice file path")
	fs.Int("engine-sampling-rate", defaults.Engine.SamplingRate, "Output sampling rate (0 = voice default)")
	fs.Int("engine-frame-period", defaults.Engine.FramePeriod, "Frame period in samples (0 = voice default)")
	fs.Float64("engine-alpha", defaults.Engine.Alpha, "All-pass constant (0 = voice default)")
	fs.Float64("engine-beta", defaults.Engine.Beta, "Postfilter coefficient")
	fs.Float64("speed", defaults.Engine.Speed, "Speech speed rate")
	fs.Float64("half-tone", defaults.Engine.HalfTone, "Additional half-tone")
	fs.Float64("engine-threshold", defaults.Engine.Threshold, "Voiced/unvoiced threshold (0 = voice default)")
	fs.Float64("engine-gv-spectrum", defaults.Engine.GVSpectrum, "GV weight for spectrum")
	fs.Float64("engine-gv-lf0", defaults.Engine.GVLogF0, "GV weight for log F0")
	fs.Float64("volume", defaults.Engine.Volume, "Volume in dB")
	fs.Int("engine-concurrency", defaults.Engine.Concurrency, "Max concurrent hts_engine subprocesses")
	fs.Int("max-morphemes", defaults.Frontend.MaxMorphemes, "Max morphemes per synthesis chunk (0 = no split)")
	fs.Int("chunk-gap-ms", defaults.Frontend.ChunkGapMS, "Silence inserted between chunks in milliseconds")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent synthesis requests")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.StringSlice("cors-origins", defaults.Server.CORSOrigins, "Allowed CORS origins (empty disables CORS)")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("JTALK")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("engine.cli_path", "JTALK_ENGINE_CLI_PATH", "HTS_ENGINE"); err != nil {
		return Config{}, fmt.Errorf("bind engine env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("jtalk")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate canonicalises the backend name and rejects out-of-range values.
func (c *Config) Validate() error {
	backend, err := NormalizeBackend(c.Engine.Backend)
	if err != nil {
		return err
	}
	c.Engine.Backend = backend

	checks := []struct {
		ok   bool
		name string
	}{
		{c.Engine.Speed >= 0, "engine.speed must not be negative"},
		{c.Engine.SamplingRate >= 0, "engine.sampling_rate must not be negative"},
		{c.Engine.FramePeriod >= 0, "engine.frame_period must not be negative"},
		{c.Engine.Alpha >= 0 && c.Engine.Alpha < 1, "engine.alpha must be in [0, 1)"},
		{c.Engine.Concurrency >= 0, "engine.concurrency must not be negative"},
		{c.Frontend.MaxMorphemes >= 0, "frontend.max_morphemes must not be negative"},
		{c.Frontend.ChunkGapMS >= 0, "frontend.chunk_gap_ms must not be negative"},
		{c.Server.Workers >= 0, "server.workers must not be negative"},
		{c.Server.MaxTextBytes > 0, "server.max_text_bytes must be positive"},
		{c.Server.RequestTimeout > 0, "server.request_timeout must be positive"},
		{c.Server.ShutdownTimeout >= 0, "server.shutdown_timeout must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("invalid config: %s", chk.name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.voices_manifest", c.Paths.VoicesManifest)
	v.SetDefault("paths.accent_lexicon", c.Paths.AccentLexicon)
	v.SetDefault("paths.user_dictionary", c.Paths.UserDictionary)
	v.SetDefault("engine.backend", c.Engine.Backend)
	v.SetDefault("engine.cli_path", c.Engine.CLIPath)
	v.SetDefault("engine.voice", c.Engine.Voice)
	v.SetDefault("engine.sampling_rate", c.Engine.SamplingRate)
	v.SetDefault("engine.frame_period", c.Engine.FramePeriod)
	v.SetDefault("engine.alpha", c.Engine.Alpha)
	v.SetDefault("engine.beta", c.Engine.Beta)
	v.SetDefault("engine.speed", c.Engine.Speed)
	v.SetDefault("engine.half_tone", c.Engine.HalfTone)
	v.SetDefault("engine.threshold", c.Engine.Threshold)
	v.SetDefault("engine.gv_spectrum", c.Engine.GVSpectrum)
	v.SetDefault("engine.gv_lf0", c.Engine.GVLogF0)
	v.SetDefault("engine.volume", c.Engine.Volume)
	v.SetDefault("engine.concurrency", c.Engine.Concurrency)
	v.SetDefault("frontend.max_morphemes", c.Frontend.MaxMorphemes)
	v.SetDefault("frontend.chunk_gap_ms", c.Frontend.ChunkGapMS)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", c.Server.CORSOrigins)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds each registered flag under its nested config key so that
// config files, env vars and flags all resolve through the same name.
// Flags missing from fs are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", b.flag, err)
		}
	}
	return nil
}
