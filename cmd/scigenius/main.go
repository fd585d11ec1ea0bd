package main

import (
	"io"
	"os"
	"strings"

	"github.com/elmaestro544/scigenius/pkg/steps/ai/settings"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "scigenius",
	Short:        "scigenius is a research assistant that answers questions about a paper",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := InitLogger(&logConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func initCommands(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("scigenius")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.scigenius")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(xdgConfigPath + "/scigenius")
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no config file, flags and environment only
	} else if err != nil {
		return err
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// the key is accepted under the names other Gemini tools use as well
	err = viper.BindEnv("api-key", "SCIGENIUS_API_KEY", "GEMINI_API_KEY", "API_KEY")
	if err != nil {
		return err
	}

	err = viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}
	err = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("lang"))
	if err != nil {
		return err
	}

	initLogger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Msg("Loaded configuration")

	return nil
}

func InitLogger(config *logConfig) error {
	if config.WithCaller {
		log.Logger = log.With().Caller().Logger()
	}

	isTerminal := isatty.IsTerminal(os.Stderr.Fd())
	logFormat := config.LogFormat
	if logFormat == "" {
		logFormat = "json"
		if isTerminal {
			logFormat = "text"
		}
	}

	var logWriter io.Writer
	if logFormat == "text" {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isTerminal}
	} else {
		logWriter = os.Stderr
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, //days
				},
			})
	}

	log.Logger = log.Output(logWriter)

	switch config.Level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, text), text when stderr is a terminal")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.scigenius/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	rootCmd.PersistentFlags().String("api-key", "", "Gemini API key")
	rootCmd.PersistentFlags().String("model", "", "Gemini model (default "+settings.DefaultGeminiEngine+")")
	rootCmd.PersistentFlags().String("base-url", "", "Gemini API base URL")
	rootCmd.PersistentFlags().String("ai-settings", "", "YAML file with engine settings")
	rootCmd.PersistentFlags().String("lang", "en", "Display language (en, ar)")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" {
			if len(os.Args) > idx+1 {
				configFile = os.Args[idx+1]
			}
		}
	}

	err := initCommands(rootCmd, configFile)
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newPapersCommand())
}
