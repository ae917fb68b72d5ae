// dianctl administra desde la terminal las resoluciones de numeración DIAN de una empresa.
//
// Uso:
//
//	dianctl login --email admin@empresa.co
//	dianctl list
//	dianctl create --prefix FE --from 1 --to 5000 --technical-key ... --valid-from 2025-01-01 --valid-to 2026-01-01
//	dianctl delete <id> --yes
//	dianctl watch --interval 30s
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/dian-resoluciones/internal/admin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", admin.UserMessage(err))
		}
		os.Exit(1)
	}
}
