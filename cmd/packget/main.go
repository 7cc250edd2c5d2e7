package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxel-engine/pkg/gamedata"
)

func main() {
	var (
		src  = flag.String("src", "", "content pack url (any go-getter source, e.g. git::https://host/repo.git//packs/default)")
		name = flag.String("name", "", "pack name, used as the output directory")
		out  = flag.String("o", "./packs", "output dir path")
	)
	flag.Parse()

	if *src == "" {
		fmt.Fprintln(os.Stderr, "error: -src flag is required")
		flag.Usage()
		os.Exit(1)
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: -name flag is required")
		flag.Usage()
		os.Exit(1)
	}

	path := fmt.Sprintf("%s/%s", *out, *name)

	if err := os.RemoveAll(path); err != nil {
		log.Fatalf("clear %s: %v", path, err)
	}

	log.Default().Printf("start downloading pack %s", path)

	if err := get.Get(path, *src); err != nil {
		log.Fatalf("download pack: %v", err)
	}

	gd, err := gamedata.LoadDir(path)
	if err != nil {
		os.RemoveAll(path)
		log.Fatalf("invalid pack: %v", err)
	}

	log.Default().Printf("done downloading pack %s: %d blocks, %d biomes", path, gd.Blocks.Len(), len(gd.Biomes))
}
