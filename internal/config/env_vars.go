package config

type EnvVars struct {
	AppName    string `env:"APP_NAME" envDefault:"Auth Client"`
	Env        string `env:"ENV" envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8085"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string { return e.AppName }

func (e EnvVars) GetEnv() string { return e.Env }

func (e EnvVars) GetLogLevel() string { return e.LogLevel }

// GetListenAddr is the loopback address receiving the authorization redirect.
func (e EnvVars) GetListenAddr() string { return e.ListenAddr }
