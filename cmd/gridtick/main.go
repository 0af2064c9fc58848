// Package main provides the CLI entry point for gridtick.
package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gg"
	"github.com/gridtick/gridtick"
	"github.com/spf13/cobra"
)

var (
	ticks    int
	interval time.Duration
	autoTick bool
	pngPath  string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridtick",
		Short: "Run the gridtick demo grid",
		Long: `gridtick seeds the demo grid (counter, blinker, accumulator,
fibonacci), runs a number of evaluation ticks, and prints the resulting
cell values. With --png it also rasterizes every cell tile into a
contact-sheet image.`,
		RunE: run,
	}

	rootCmd.Flags().IntVarP(&ticks, "ticks", "t", 10, "Number of evaluation ticks to run")
	rootCmd.Flags().DurationVar(&interval, "interval", gridtick.DefaultTickInterval, "Auto-tick interval")
	rootCmd.Flags().BoolVar(&autoTick, "auto", false, "Drive ticks from the timer instead of manual requests")
	rootCmd.Flags().StringVar(&pngPath, "png", "", "Write a rendered contact sheet to this file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		gridtick.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	grid := gridtick.NewGrid()
	gridtick.SetupDemoGrid(grid)

	engine := gridtick.NewEngine(gridtick.WithTickInterval(interval))
	engine.SetAutoTick(autoTick)

	for i := 0; i < ticks; i++ {
		if autoTick {
			engine.Advance(grid, interval)
		} else {
			engine.RequestTick()
			engine.Advance(grid, 0)
		}
	}

	printGrid(grid)
	fmt.Printf("\n%d cells, %d ticks\n", grid.Len(), engine.TickCount())

	if pngPath != "" {
		if err := renderContactSheet(grid, pngPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Printf("wrote %s\n", pngPath)
	}

	return nil
}

func printGrid(g *gridtick.Grid) {
	for _, c := range g.Coords() {
		cell, _ := g.Cell(c)
		name := gridtick.CoordToName(c.Col, c.Row)
		display := gridtick.FormatValue(cell.Value)
		if cell.Error {
			display = "#ERR"
		}
		if cell.IsFormula {
			fmt.Printf("%-5s %-12s %s\n", name, display, cell.Raw)
		} else {
			fmt.Printf("%-5s %s\n", name, display)
		}
	}
}

// renderContactSheet rasterizes every written cell through the render
// service and composites the tiles at their grid positions.
func renderContactSheet(g *gridtick.Grid, path string) error {
	raster, err := gridtick.NewSVGRasterizer()
	if err != nil {
		return err
	}
	svc := gridtick.NewRenderService(raster)
	defer svc.Close()

	coords := g.Coords()
	opts := gridtick.LensOptions{ShowValue: true, ShowCoord: true}

	maxCol, maxRow := 0, 0
	for _, c := range coords {
		maxCol = max(maxCol, c.Col)
		maxRow = max(maxRow, c.Row)
	}

	// request every tile, then poll until all results arrive
	tiles := make(map[gridtick.Coord]gridtick.RenderRequest, len(coords))
	for _, c := range coords {
		cell, _ := g.Cell(c)
		markup, hash := gridtick.CellContent(cell, c, opts)
		cell.ContentHash = hash
		tiles[c] = gridtick.RenderRequest{
			Coord:       c,
			Markup:      markup,
			Width:       gridtick.TileWidth,
			Height:      gridtick.TileHeight,
			ContentHash: hash,
		}
	}

	outstanding := make(map[gridtick.Coord]struct{}, len(tiles))
	for c := range tiles {
		outstanding[c] = struct{}{}
	}
	deadline := time.Now().Add(10 * time.Second)
	for len(outstanding) > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %d tiles", len(outstanding))
		}
		for c := range outstanding {
			req := tiles[c]
			if svc.IsCached(req.ContentHash) {
				delete(outstanding, c)
				continue
			}
			svc.RequestRender(req)
		}
		svc.PollResults()
		time.Sleep(time.Millisecond)
	}

	sheet := gg.NewContext((maxCol+1)*gridtick.TileWidth, (maxRow+1)*gridtick.TileHeight)
	sheet.ClearWithColor(gg.White)
	for c, req := range tiles {
		pixels, ok := svc.CachedPixels(req.ContentHash)
		if !ok {
			continue
		}
		tile := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
		copy(tile.Pix, pixels)
		sheet.DrawImage(gg.ImageBufFromImage(tile),
			float64(c.Col*gridtick.TileWidth), float64(c.Row*gridtick.TileHeight))
	}
	return sheet.SavePNG(path)
}
