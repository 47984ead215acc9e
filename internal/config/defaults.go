package config

const (
	defaultCacheDir        = "~/.local/share/deckhand/images"
	defaultLogDir          = "~/.local/share/deckhand/logs"
	defaultWorkers         = 5
	defaultRequestTimeout  = 120
	defaultRemoteURL       = "http://localhost:4444/wd/hub"
	defaultBrowser         = "chrome"
	defaultStartURL        = "https://www.makeplayingcards.com/design/custom-blank-card.html"
	defaultDesignerFlowURL = "https://www.makeplayingcards.com/products/pro_item_process_flow.aspx"
	defaultBusyTimeout     = 100
	defaultWindowWidth     = 1200
	defaultWindowHeight    = 900
	defaultNotifyTimeout   = 10
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Downloader: Downloader{
			Workers:        defaultWorkers,
			RequestTimeout: defaultRequestTimeout,
		},
		Session: Session{
			RemoteURL:       defaultRemoteURL,
			Browser:         defaultBrowser,
			StartURL:        defaultStartURL,
			DesignerFlowURL: defaultDesignerFlowURL,
			BusyTimeout:     defaultBusyTimeout,
			WindowWidth:     defaultWindowWidth,
			WindowHeight:    defaultWindowHeight,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
