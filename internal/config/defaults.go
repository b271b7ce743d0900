package config

const (
	defaultDataDir            = "~/.local/share/inkflow"
	defaultLogDir             = "~/.local/share/inkflow/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultLogFormat          = ""
	defaultLogLevel           = "info"
	defaultFileNumberPrefix   = "INK"
	defaultMinRejectionNote   = 10
	defaultFallbackAssigneeID = 0
)

// Default returns the repository default configuration. Paths are left in
// tilde form; Load expands them during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Workflow: Workflow{
			FallbackAssigneeID:    defaultFallbackAssigneeID,
			FileNumberPrefix:      defaultFileNumberPrefix,
			MinRejectionNoteChars: defaultMinRejectionNote,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
