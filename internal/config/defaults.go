package config

const (
	defaultStateDir  = "~/.local/share/titantron"
	defaultLogDir    = "~/.local/share/titantron/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMediaServerTimeout = 15

	defaultBackendWindowSeconds  = 10
	defaultBackendTimeoutSeconds = 30

	defaultSampleRate            = 22050
	defaultChunkSeconds          = 10
	defaultBellLowHz             = 2000
	defaultBellHighHz            = 4500
	defaultBellOnsetRatio        = 2.5
	defaultBellMinGapMs          = 1000
	defaultMusicHistorySeconds   = 15
	defaultMusicSustainWindows   = 3
	defaultMusicScoreThreshold   = 0.9
	defaultMusicCooldownSeconds  = 30
	defaultExtractTimeoutSeconds = 300

	defaultFrameRate          = 0.5
	defaultFrameWidth         = 160
	defaultFrameHeight        = 90
	defaultSceneThreshold     = 0.12
	defaultThumbnailThreshold = 0.42
	defaultDarkBrightness     = 15
	defaultWeightMAD          = 0.45
	defaultWeightSSIM         = 0.35
	defaultWeightEdge         = 0.10
	defaultWeightBrightness   = 0.10

	defaultAnalysisTimeoutSeconds = 600
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultAudioMergeSeconds      = 30
	defaultVisualMergeSeconds     = 5
	defaultThumbMergeSeconds      = 30
	defaultBellMinClusterSize     = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		MediaServer: MediaServer{
			RequestTimeout: defaultMediaServerTimeout,
		},
		Backend: Backend{
			WindowSeconds:  defaultBackendWindowSeconds,
			TimeoutSeconds: defaultBackendTimeoutSeconds,
		},
		Audio: Audio{
			Enabled:               true,
			SampleRate:            defaultSampleRate,
			ChunkSeconds:          defaultChunkSeconds,
			BellLowHz:             defaultBellLowHz,
			BellHighHz:            defaultBellHighHz,
			BellOnsetRatio:        defaultBellOnsetRatio,
			BellMinGapMs:          defaultBellMinGapMs,
			MusicHistorySeconds:   defaultMusicHistorySeconds,
			MusicSustainWindows:   defaultMusicSustainWindows,
			MusicScoreThreshold:   defaultMusicScoreThreshold,
			MusicCooldownSeconds:  defaultMusicCooldownSeconds,
			ExtractTimeoutSeconds: defaultExtractTimeoutSeconds,
		},
		Visual: Visual{
			FrameRate:          defaultFrameRate,
			FrameWidth:         defaultFrameWidth,
			FrameHeight:        defaultFrameHeight,
			SceneThreshold:     defaultSceneThreshold,
			ThumbnailThreshold: defaultThumbnailThreshold,
			DarkBrightness:     defaultDarkBrightness,
			WeightMAD:          defaultWeightMAD,
			WeightSSIM:         defaultWeightSSIM,
			WeightEdge:         defaultWeightEdge,
			WeightBrightness:   defaultWeightBrightness,
		},
		Analysis: Analysis{
			TimeoutSeconds:     defaultAnalysisTimeoutSeconds,
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			AudioMergeSeconds:  defaultAudioMergeSeconds,
			VisualMergeSeconds: defaultVisualMergeSeconds,
			ThumbMergeSeconds:  defaultThumbMergeSeconds,
			BellMinClusterSize: defaultBellMinClusterSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
