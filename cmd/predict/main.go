// Command predict runs the food detector on one image and prints the same
// JSON body the /predict/ endpoint returns.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/food-calorie-api/internal/calories"
	"github.com/Brownie44l1/food-calorie-api/internal/config"
	"github.com/Brownie44l1/food-calorie-api/internal/handlers"
	"github.com/Brownie44l1/food-calorie-api/internal/model"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	imagePath := flag.String("image", "", "path to the image to analyse")
	modelPath := flag.String("model", cfg.ModelPath, "path to the ONNX model")
	metadataPath := flag.String("metadata", cfg.MetadataPath, "path to the model metadata JSON")
	confidence := flag.Float64("conf", cfg.ConfidenceThreshold, "confidence threshold")
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: predict -image makanan.jpg [-model best.onnx] [-metadata model_metadata.json]")
		os.Exit(2)
	}

	if err := run(cfg, *imagePath, *modelPath, *metadataPath, float32(*confidence)); err != nil {
		fmt.Fprintf(os.Stderr, "predict: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, imagePath, modelPath, metadataPath string, confidence float32) error {
	table, err := calories.LoadTable(cfg.CalorieTablePath)
	if err != nil {
		return err
	}

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	server, err := model.NewServer(modelPath, metadataPath, cfg.SharedLibraryPath, model.Options{
		ConfidenceThreshold: confidence,
		IoUThreshold:        float32(cfg.IoUThreshold),
		MaxDetections:       cfg.MaxDetections,
	})
	if err != nil {
		return err
	}
	defer server.Close()

	detections, err := server.Detect(context.Background(), img)
	if err != nil {
		return err
	}

	summary := table.Summarize(detections)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(handlers.PredictionResponse{
		Success:       true,
		Detections:    summary.Items,
		TotalCalories: summary.TotalCalories,
	})
}
