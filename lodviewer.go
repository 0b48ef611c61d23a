package main

import (
	"flag"
	"log"

	"github.com/meshpipe/lodviewer/asset"
	"github.com/meshpipe/lodviewer/config"
	"github.com/meshpipe/lodviewer/lodgen"
	"github.com/meshpipe/lodviewer/vfs"
	"github.com/meshpipe/lodviewer/web"
)

func main() {
	var addr, dir, webPath, configPath, gltfpackPath string
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "models", "Path to model storage directory")
	flag.StringVar(&webPath, "web", "web", "Path to web static files")
	flag.StringVar(&configPath, "config", "", "Path to yaml config file (optional)")
	flag.StringVar(&gltfpackPath, "gltfpack", "", "gltfpack binary override")
	flag.Parse()

	if configPath != "" {
		if err := config.LoadFile(configPath); err != nil {
			log.Fatal(err)
		}
	}
	config.SetGltfpackBinary(gltfpackPath)

	storeDir, err := vfs.NewDirectoryDriver(dir)
	if err != nil {
		log.Fatal(err)
	}

	store := asset.NewStore(storeDir)
	producer := lodgen.NewGltfpackProducer()
	if err := producer.Available(); err != nil {
		log.Printf("[main] %v, uploads will be served at full fidelity only", err)
	}
	pipeline := lodgen.NewPipeline(store, producer)

	if err := web.StartServer(addr, store, pipeline, webPath); err != nil {
		log.Fatal(err)
	}
}
