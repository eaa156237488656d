package main

import (
	"os"

	"nova-chat/backend/internal/app"
)

// @title Nova Chat API
// @version 1.0
// @description Streaming chat backend with an OpenAI-compatible relay.
// @BasePath /api
func main() {
	os.Exit(app.Run())
}
