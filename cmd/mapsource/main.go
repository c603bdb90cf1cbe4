package main

import (
	"github.com/datazip-inc/mapsource"
	"github.com/datazip-inc/mapsource/carto"
)

func main() {
	mapsource.RegisterEngine(carto.New())
}
