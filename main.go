package main

import (
	"log"
	"net/http"
	"os/exec"
	"runtime"

	"mmiclean/config"
	"mmiclean/database"
)

func main() {
	log.Println("Opening dataset...")
	ds, err := database.Open()
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer ds.Close()
	log.Println("Dataset ready.")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("WARN: Failed to load config file: %v. Using defaults.", err)
		cfg = config.GetConfig()
	}

	mux := http.NewServeMux()
	SetupRoutes(mux, ds)

	log.Printf("Starting server on http://localhost%s", cfg.ListenAddr)

	openBrowser("http://localhost" + cfg.ListenAddr)

	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("server start error: %v", err)
	}
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}
