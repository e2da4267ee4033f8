package main

import (
	"github.com/mesflow/gridsync/pkg/configuration"
)

func main() {
	defer configuration.Use().Unload()
	Execute()
}
