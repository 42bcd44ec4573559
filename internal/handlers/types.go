package handlers

import "github.com/Brownie44l1/food-calorie-api/internal/calories"

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type PredictionResponse struct {
	ID            string          `json:"id,omitempty"`
	Success       bool            `json:"sukses"`
	Detections    []calories.Item `json:"deteksi"`
	TotalCalories int             `json:"total_estimasi_kalori"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
