package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/logger"
	"github.com/mwhite-hr/reqflow/internal/secrets"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

const app = "reqflow"

type Config struct {
	// Workspace is the root directory holding clients/.
	Workspace string        `mapstructure:"workspace"`
	ATS       *ATSConfig    `mapstructure:"ats"`
	Gemini    *GeminiConfig `mapstructure:"gemini"`
	Watch     *WatchConfig  `mapstructure:"watch"`
	Push      *PushConfig   `mapstructure:"push"`
}

type ATSConfig struct {
	DatabaseID   string `mapstructure:"database-id"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	TokenFile    string `mapstructure:"token-file"`
	APIURL       string `mapstructure:"api-url"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type WatchConfig struct {
	IntervalMinutes int  `mapstructure:"interval-minutes"`
	AutoDownload    bool `mapstructure:"auto-download"`
}

type PushConfig struct {
	// StatusMap overrides the default recommendation to pipeline-status map.
	StatusMap map[string]string `mapstructure:"status-map"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "reqflow syncs ATS candidates into a local workspace, assesses resumes and pushes results back",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is reqflow.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine (version and help still work); a
	// config that exists but does not parse is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return config, nil
}

// newLogger builds the process logger or dies.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func mustConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		l.Fatal("config is required")
	}
	if config.Workspace == "" {
		l.Fatal("workspace root is required under the 'workspace' key")
	}
	return config
}

func newWorkspace(config *Config, l *zap.Logger) *workspace.Workspace {
	return workspace.New(config.Workspace, l)
}

// newATSClient builds an authenticated-capable ATS client from the config,
// resolving the password and api key through the secrets loader.
func newATSClient(ctx context.Context, config *Config, l *zap.Logger) *ats.Client {
	if config.ATS == nil {
		l.Fatal("ats configuration is required under the 'ats' key")
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "ats password",
		Value: config.ATS.Password,
		File:  config.ATS.PasswordFile,
		Env:   "REQFLOW_ATS_PASSWORD",
	})
	if err != nil {
		l.Fatal("loading ats password", zap.Error(err))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "ats api key",
		Value: config.ATS.APIKey,
		File:  config.ATS.APIKeyFile,
		Env:   "REQFLOW_ATS_API_KEY",
	})
	if err != nil {
		l.Fatal("loading ats api key", zap.Error(err))
	}

	client := ats.New(ctx, l, ats.Credentials{
		DatabaseID: config.ATS.DatabaseID,
		Username:   config.ATS.Username,
		Password:   password,
		APIKey:     apiKey,
	})
	if config.ATS.APIURL != "" {
		client.APIURL = config.ATS.APIURL
	}
	if config.ATS.TokenFile != "" {
		client.TokenFile = config.ATS.TokenFile
		client.LoadSession()
	}
	return client
}

// lockRequisition takes the requisition's advisory lock or dies; the caller
// defers the release.
func lockRequisition(ws *workspace.Workspace, client, req string, l *zap.Logger) *workspace.Lock {
	lock, err := ws.AcquireLock(client, req)
	if err != nil {
		l.Fatal("locking requisition",
			zap.String("client", client),
			zap.String("requisition", req),
			zap.Error(err),
		)
	}
	return lock
}

// fatalUnlock releases the requisition lock and then exits. zap's Fatal calls
// os.Exit, which skips deferred releases and would strand the lock file.
func fatalUnlock(lock *workspace.Lock, l *zap.Logger, msg string, fields ...zap.Field) {
	lock.Release()
	l.Fatal(msg, fields...)
}
