package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jlrodriguez/jobsift/internal/enrich"
	"github.com/jlrodriguez/jobsift/internal/feeds"
	"github.com/jlrodriguez/jobsift/internal/filter"
)

const (
	app = "jobsift"

	defaultStageTable   = "stage"
	defaultCuratedTable = "curated"
)

type Config struct {
	Timezone    string `mapstructure:"timezone"`
	OnDateError string `mapstructure:"on-date-error"`
	Database    string `mapstructure:"database"`
	StageTable  string `mapstructure:"stage-table"`
	Strategy    string `mapstructure:"strategy"`

	Feeds  []feeds.Feeder `mapstructure:"feeds"`
	Filter *filter.Config `mapstructure:"filter"`
	AI     *AIConfig      `mapstructure:"ai"`
	Enrich *EnrichConfig  `mapstructure:"enrich"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type EnrichConfig struct {
	enrich.Config `mapstructure:",squash"`

	ResumeFile string `mapstructure:"resume-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsift ingests job-posting RSS feeds, filters them and scores them against a resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsift.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("dry-run", false, "compute results without writing anything")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("dry-run", rootCmd.PersistentFlags().Lookup("dry-run"))

	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
}

func initConfig() {
	// A .env file is optional; process environment wins either way.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	viper.SetDefault("timezone", "UTC")
	viper.SetDefault("database", app+".db")
	viper.SetDefault("stage-table", defaultStageTable)
	// The date window keeps its default when the key is absent; an
	// explicit 0 disables the date filter.
	viper.SetDefault("filter.date-filter.days-back", 7)
	viper.SetDefault("filter.date-filter.enabled", true)
	viper.SetDefault("filter.require-content.enabled", true)
	viper.SetDefault("filter.add-as-of", true)
	viper.SetDefault("filter.output-table", defaultCuratedTable)

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.StageTable == "" {
		config.StageTable = defaultStageTable
	}
	if config.Filter == nil {
		cfg := filter.DefaultConfig()
		config.Filter = &cfg
	}
	if config.Filter.SourceTable == "" {
		config.Filter.SourceTable = config.StageTable
	}
	if config.Filter.OutputTable == "" {
		config.Filter.OutputTable = defaultCuratedTable
	}
	if config.Enrich == nil {
		config.Enrich = &EnrichConfig{Config: enrich.DefaultConfig()}
	}

	return config, nil
}
