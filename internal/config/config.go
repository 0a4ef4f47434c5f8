package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Sage       SageConfig       `mapstructure:"sage"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	History    HistoryConfig    `mapstructure:"history"`
}

// ColorConfig defines the console color per log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug"`
	Info  string `mapstructure:"info"`
	Warn  string `mapstructure:"warn"`
	Error string `mapstructure:"error"`
	Fatal string `mapstructure:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"`
	AddSource   bool        `mapstructure:"add_source"`
	ServiceName string      `mapstructure:"service_name"`
	LogFile     string      `mapstructure:"log_file"`
	MaxSize     int         `mapstructure:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups"`
	MaxAge      int         `mapstructure:"max_age"`
	Compress    bool        `mapstructure:"compress"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// Neo4jConfig holds the graph service connection settings. One driver is
// opened per pipeline run and released when the run finishes.
type Neo4jConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DatasetConfig names the stored protein data: which node labels mark the
// train/test partitions, the property carrying role tags, and the scalar
// feature properties (prefix + count) attached to every node.
type DatasetConfig struct {
	TrainLabel       string `mapstructure:"train_label"`
	TestLabel        string `mapstructure:"test_label"`
	RelationshipType string `mapstructure:"relationship_type"`
	ClassProperty    string `mapstructure:"class_property"`
	FeaturePrefix    string `mapstructure:"feature_prefix"`
	FeatureCount     int    `mapstructure:"feature_count"`
	TrainGraphName   string `mapstructure:"train_graph_name"`
	TestGraphName    string `mapstructure:"test_graph_name"`
}

// SageConfig is the hyperparameter set for the external GraphSAGE training
// procedure, passed through verbatim.
type SageConfig struct {
	ModelName          string  `mapstructure:"model_name"`
	EmbeddingDimension int     `mapstructure:"embedding_dimension"`
	Aggregator         string  `mapstructure:"aggregator"`
	ActivationFunction string  `mapstructure:"activation_function"`
	BatchSize          int     `mapstructure:"batch_size"`
	Epochs             int     `mapstructure:"epochs"`
	SampleSizes        []int   `mapstructure:"sample_sizes"`
	LearningRate       float64 `mapstructure:"learning_rate"`
}

// ClassifierConfig tunes the local linear classifier.
type ClassifierConfig struct {
	L2Penalty     float64 `mapstructure:"l2_penalty"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Workers       int     `mapstructure:"workers"`
}

// HistoryConfig controls the optional run-history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// SetDefaults registers defaults so the tool runs with a minimal config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "protosage")
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "red")

	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", 30*time.Second)

	v.SetDefault("dataset.train_label", "Train")
	v.SetDefault("dataset.test_label", "Test")
	v.SetDefault("dataset.relationship_type", "INTERACTS")
	v.SetDefault("dataset.class_property", "class")
	v.SetDefault("dataset.feature_prefix", "embedding_")
	v.SetDefault("dataset.feature_count", 50)
	v.SetDefault("dataset.train_graph_name", "train")
	v.SetDefault("dataset.test_graph_name", "test")

	v.SetDefault("sage.model_name", "proteinModel")
	v.SetDefault("sage.embedding_dimension", 64)
	v.SetDefault("sage.aggregator", "mean")
	v.SetDefault("sage.activation_function", "sigmoid")
	v.SetDefault("sage.batch_size", 256)
	v.SetDefault("sage.epochs", 10)
	v.SetDefault("sage.sample_sizes", []int{25, 10})
	v.SetDefault("sage.learning_rate", 0.01)

	v.SetDefault("classifier.l2_penalty", 1.0)
	v.SetDefault("classifier.max_iterations", 200)
	v.SetDefault("classifier.workers", 4)

	v.SetDefault("history.enabled", false)
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is a required configuration field")
	}
	if c.Dataset.FeatureCount <= 0 {
		return fmt.Errorf("dataset.feature_count must be a positive integer")
	}
	if c.Dataset.TrainLabel == "" || c.Dataset.TestLabel == "" {
		return fmt.Errorf("dataset.train_label and dataset.test_label are required")
	}
	if c.Dataset.TrainGraphName == c.Dataset.TestGraphName {
		return fmt.Errorf("dataset.train_graph_name and dataset.test_graph_name must differ")
	}
	if c.Sage.EmbeddingDimension <= 0 {
		return fmt.Errorf("sage.embedding_dimension must be a positive integer")
	}
	if c.Sage.ModelName == "" {
		return fmt.Errorf("sage.model_name is required")
	}
	if len(c.Sage.SampleSizes) == 0 {
		return fmt.Errorf("sage.sample_sizes must list at least one layer")
	}
	if c.Classifier.Workers <= 0 {
		return fmt.Errorf("classifier.workers must be a positive integer")
	}
	if c.Classifier.MaxIterations <= 0 {
		return fmt.Errorf("classifier.max_iterations must be a positive integer")
	}
	if c.History.Enabled && c.History.URL == "" {
		return fmt.Errorf("history.url is required when history.enabled is true")
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
