package main

import (
	"leaguevault/cmd/leaguevault/commands"
	"leaguevault/lib/osutil"
	"leaguevault/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "leaguevault")
	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
