package main

import (
	"fmt"
	"os"

	"github.com/yanqian/blobdrop/internal/infra/config"
	"github.com/yanqian/blobdrop/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewTo(os.Stderr)
	if err := newRootCmd(openStores(cfg, log)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
