package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/fakturlab/faktur/internal/types"
)

type Configuration struct {
	Logging LoggingConfig `validate:"required"`
	Storage StorageConfig `validate:"required"`
	Invoice InvoiceConfig `validate:"required"`
	PDF     PDFConfig     `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// StorageConfig locates the single durable invoice document.
type StorageConfig struct {
	Dir  string `validate:"required"`
	File string `validate:"required"`
}

// InvoiceConfig holds the defaults stamped onto a fresh invoice.
type InvoiceConfig struct {
	Currency      string `validate:"required,len=3"`
	SenderName    string
	SenderAddress string
}

type PDFConfig struct {
	Output string `validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/faktur")

	// Set up environment variables support
	v.SetEnvPrefix("FAKTUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("storage.dir", defaultStorageDir())
	v.SetDefault("storage.file", "invoice.json")
	v.SetDefault("invoice.currency", "IDR")
	v.SetDefault("invoice.sendername", "Minilemon Media")
	v.SetDefault("invoice.senderaddress", "Jl. Veteran No. 1, Semarang, Jawa Tengah")
	v.SetDefault("pdf.output", "invoice.pdf")
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".faktur"
	}
	return filepath.Join(home, ".faktur")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// StoragePath returns the full path of the persisted invoice document.
func (c Configuration) StoragePath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.File)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Storage: StorageConfig{Dir: ".faktur", File: "invoice.json"},
		Invoice: InvoiceConfig{
			Currency:      "IDR",
			SenderName:    "Minilemon Media",
			SenderAddress: "Jl. Veteran No. 1, Semarang, Jawa Tengah",
		},
		PDF: PDFConfig{Output: "invoice.pdf"},
	}
}
