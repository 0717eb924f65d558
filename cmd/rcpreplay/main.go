// Command rcpreplay replays a captured Fast3D-style command list against a
// RasterBackend and writes out the rendered frame(s). It exists to exercise
// the gfx package end-to-end outside of a test binary: point it at a raw
// dump of 64-bit command words plus segment blobs and it drives Translator
// exactly the way a real console's display-list scheduler would.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/term"

	"github.com/zotley/rcp64gfx"
	"github.com/zotley/rcp64gfx/internal/backend/headless"
	"github.com/zotley/rcp64gfx/internal/loader"
	"github.com/zotley/rcp64gfx/internal/window"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rcpreplay:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("rcpreplay", flag.ContinueOnError)
	dlPath := fs.String("dl", "", "path to a raw big-endian display list (uint32 words)")
	segPath := fs.String("seg", "", "path to a segment-1 data blob (vertices/textures), loaded at segment 1")
	out := fs.String("out", "frame.png", "output PNG path for the rendered frame")
	width := fs.Int("width", 320, "framebuffer width")
	height := fs.Int("height", 240, "framebuffer height")
	abiName := fs.String("abi", "f3dex2", "RSP microcode ABI: f3dex2 or f3dex1")
	interactive := fs.Bool("interactive", false, "pause for a keypress after rendering (requires a TTY)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dlPath == "" {
		return fmt.Errorf("-dl is required")
	}

	dl, err := readWords(*dlPath)
	if err != nil {
		return fmt.Errorf("reading display list: %w", err)
	}

	backend := headless.New()
	win := window.New(window.Config{Width: *width, Height: *height})
	loader := loader.New()

	var opts []gfx.Option
	if *abiName == "f3dex1" {
		opts = append(opts, gfx.WithABI(gfx.ABIF3DEX1))
	}

	tr := gfx.New(backend, win, loader, opts...)
	if err := tr.Init(*width, *height); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if *segPath != "" {
		data, err := os.ReadFile(*segPath)
		if err != nil {
			return fmt.Errorf("reading segment blob: %w", err)
		}
		tr.SetSegment(1, data)
	}

	tr.StartFrame()
	if err := tr.Run(dl); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	tr.EndFrame()

	if *interactive {
		waitForKeypress()
	}

	return writePNG(*out, backend.ReadPixels(), *width, *height)
}

func readWords(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of 4", path, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return words, nil
}

func writePNG(path string, pixels []byte, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// waitForKeypress drops stdin into raw mode just long enough to read one
// byte, the replay-tool equivalent of the reference's raw keystroke path in
// TerminalMMIO: no line buffering, no echo, exactly one byte consumed. If
// stdin isn't a TTY (piped input, CI), it's skipped rather than blocking
// forever on a read that will never come.
func waitForKeypress() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	fmt.Fprintln(os.Stderr, "frame rendered, press any key to exit...")
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)
	var buf [1]byte
	os.Stdin.Read(buf[:])
}
