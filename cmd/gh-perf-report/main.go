package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tenstorrent/gh-perf-report/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
