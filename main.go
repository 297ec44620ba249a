package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Scarpy19/TextScreen/ts"
	"github.com/Scarpy19/TextScreen/ts/common"
)

func main() {
	debugMode, configFile := parseCliArgs()
	config, err := common.LoadConfig(configFile, common.NewLog())
	if err != nil {
		log.Fatal(err)
	}
	router, port := ts.GetServer(debugMode, config)
	err = router.Run(port)
	if err != nil {
		log.Fatal(err)
	}
}

func parseCliArgs() (bool, string) {
	flag.Usage = func() {
		fmt.Printf("Usage: %s [flags]\n\n", filepath.Base(os.Args[0]))
		fmt.Printf("Serves a page that shows typed text as large as the screen allows.\n")
		flag.PrintDefaults()
	}
	var debugMode bool
	flag.BoolVar(&debugMode, "d", false, "Enable debug mode & deploy profiling and test handlers.")
	var configFile string
	flag.StringVar(&configFile, "c", "config/config.yaml", "Configuration file to load.")
	flag.Parse()
	return debugMode, configFile
}
