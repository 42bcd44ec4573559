package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port                int
	ModelPath           string
	MetadataPath        string
	SharedLibraryPath   string
	ConfidenceThreshold float64
	IoUThreshold        float64
	MaxDetections       int
	MaxUploadMB         int64
	CalorieTablePath    string
	DatabasePath        string // empty disables prediction history
	GCSBucket           string // empty disables upload archiving
	AllowedOrigin       string
	LogLevel            string
	LogFormat           string
	LogDirectory        string
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand if a .env file should be honoured.
func Load() *Config {
	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join("models", "best.onnx")),
		MetadataPath:        getEnv("METADATA_PATH", filepath.Join("models", "model_metadata.json")),
		SharedLibraryPath:   getEnv("ONNXRUNTIME_LIB", ""),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.4),
		IoUThreshold:        getEnvAsFloat("IOU_THRESHOLD", 0.7),
		MaxDetections:       getEnvAsInt("MAX_DETECTIONS", 300),
		MaxUploadMB:         getEnvAsInt64("MAX_UPLOAD_MB", 10),
		CalorieTablePath:    getEnv("CALORIE_TABLE_PATH", ""),
		DatabasePath:        getEnvAllowEmpty("DATABASE_PATH", filepath.Join("data", "predictions.db")),
		GCSBucket:           getEnv("GCS_BUCKET", ""),
		AllowedOrigin:       getEnv("ALLOWED_ORIGIN", "*"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		LogDirectory:        getEnv("LOG_DIR", ""),
	}
}

// MaxUploadBytes is the multipart size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one explicitly set
// to the empty string, so DATABASE_PATH= turns history off.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue >= 0 && floatValue <= 1 {
			return floatValue
		}
	}
	return defaultValue
}
