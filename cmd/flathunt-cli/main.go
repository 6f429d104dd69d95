package main

import (
	"context"
	"flathunt-backend/cmd/flathunt-cli/commands"
	"flathunt-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "flathunt-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
