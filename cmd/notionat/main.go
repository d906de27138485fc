package main

import (
	"os"

	"github.com/joho/godotenv"
	"notionat/cmd/notionat/cmd"
	"notionat/internal/utils"
)

func main() {
	// A .env in the working directory may carry NOTIONAT_* overrides.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Warnf("loading .env: %v", err)
	}

	code := cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil)
	utils.GetLogger().Sync()
	os.Exit(code)
}
