package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/moi/internal/server/adminctl"
	"github.com/dmitrijs2005/moi/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := adminctl.NewRootCmd(adminctl.OpenPostgres(cfg)).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
