// @title EduCorp Backend API
// @version 1.0
// @description Course enrollment, lesson progress and learning-style assessment service.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /

package main

import (
	"flag"
	"log"

	"educorp_backend/internal/app"
	"educorp_backend/internal/config"
	"educorp_backend/pkg/logger"

	"github.com/joho/godotenv"
)

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No env file loaded from %s: %v", *envFile, err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg, *configDir)
	defer logger.Log.Sync()

	application.Run()
}
