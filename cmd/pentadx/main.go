package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/struktured-labs/penta-dragon-dx/internal/colorizer"
	"github.com/struktured-labs/penta-dragon-dx/internal/palette"
	"github.com/struktured-labs/penta-dragon-dx/internal/patch"
	"github.com/struktured-labs/penta-dragon-dx/internal/rom"
	"github.com/struktured-labs/penta-dragon-dx/pkg/log"
	"github.com/struktured-labs/penta-dragon-dx/pkg/utils"
)

func main() {
	romFile := flag.String("rom", "", "The rom file to load")
	paletteFile := flag.String("palettes", "", "The palette specification to apply (yaml)")
	outFile := flag.String("out", "", "Where to write the patched rom")
	ipsFile := flag.String("ips", "", "Where to write an IPS patch of the changes")
	info := flag.Bool("info", false, "Print the cartridge header and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	s := newStyles()

	if *romFile == "" {
		fmt.Println(s.err.Render("no rom file given, see -help"))
		os.Exit(1)
	}

	// open the rom file
	data, err := utils.LoadFile(*romFile)
	if err != nil {
		fail(s, err)
	}
	img, err := rom.NewImage(data)
	if err != nil {
		fail(s, err)
	}
	header, err := img.ParseHeader()
	if err != nil {
		fail(s, err)
	}

	fmt.Println(s.title.Render(header.String()))
	if *info {
		return
	}

	// open the palette specification, if given
	var spec *palette.File
	if *paletteFile != "" {
		specData, err := utils.LoadFile(*paletteFile)
		if err != nil {
			fail(s, err)
		}
		if spec, err = palette.Load(specData); err != nil {
			fail(s, err)
		}
	}

	res, err := colorizer.Build(img, colorizer.Config{
		Palettes: spec,
		Logger:   log.New(*debug),
	})
	if err != nil {
		fail(s, err)
	}

	// build report
	fmt.Println(s.header.Render("committed regions"))
	for _, r := range res.Regions {
		fmt.Println(s.region.Render(fmt.Sprintf("  bank %2d  %04X-%04X  %s", r.Bank, r.Addr, r.End(), r.Tag)))
	}

	if *outFile != "" {
		if err := utils.WriteFile(*outFile, res.Image.Bytes()); err != nil {
			fail(s, err)
		}
		fmt.Println(s.ok.Render("wrote " + *outFile))
	}
	if *ipsFile != "" {
		ips, err := patch.EncodeIPS(img.Bytes(), res.Image.Bytes())
		if err != nil {
			fail(s, err)
		}
		if err := utils.WriteFile(*ipsFile, ips); err != nil {
			fail(s, err)
		}
		fmt.Println(s.ok.Render("wrote " + *ipsFile))
	}
}

func fail(s styles, err error) {
	fmt.Println(s.err.Render(err.Error()))
	os.Exit(1)
}
