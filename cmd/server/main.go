package main

import (
	"github.com/joho/godotenv"

	"appraise/internal/app/server"
)

func main() {
	_ = godotenv.Load()
	server.Run()
}
