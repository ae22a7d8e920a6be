package main

import (
	"github.com/josephgoksu/tod/cmd"
	"github.com/josephgoksu/tod/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
