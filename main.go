package main

import (
	"fmt"
	"io"
	"os"

	"github.com/EPecherkin/ai-rm/cmd"
	"github.com/EPecherkin/ai-rm/logger"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			reportPanic(os.Stderr, err)
			os.Exit(1)
		}
	}()

	cmd.Execute()
}

func reportPanic(w io.Writer, recovered any) {
	value := recovered
	if _, ok := recovered.(error); !ok {
		value = fmt.Sprint(recovered)
	}
	logger.New(w, "error").With(logger.ERROR, value).Error("panic in main")
}
