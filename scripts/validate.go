package main

import (
	"flag"
	"os"

	"hotelbook/internal/logger"
	"hotelbook/internal/validation"
)

func main() {
	var baseURL, username, password string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL of the API")
	flag.StringVar(&username, "user", os.Getenv("SMOKE_USER"), "Username for authenticated checks")
	flag.StringVar(&password, "password", os.Getenv("SMOKE_PASSWORD"), "Password for authenticated checks")
	flag.Parse()

	logger.Init("info", "text")
	logger.Get().Info("Starting smoke checks", "url", baseURL)

	if err := validation.NewSmokeChecker(baseURL, username, password).CheckAll(); err != nil {
		logger.Fatal("Smoke checks failed", "error", err)
	}
}
