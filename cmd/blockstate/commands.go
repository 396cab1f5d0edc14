package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/annel0/blockstate/internal/blockstate"
	"github.com/annel0/blockstate/internal/palette"
	"github.com/annel0/blockstate/internal/storage"
)

// runParse печатает описание каждого аргумента; возвращает первую ошибку разбора
func runParse(w io.Writer, args []string) error {
	var firstErr error
	for _, text := range args {
		s, err := blockstate.Parse(text)
		if err != nil {
			fmt.Fprintf(w, "❌ %v\n", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Fprintf(w, "%s\n", s)
		fmt.Fprintf(w, "  id:             %s\n", s.ID())
		for k, v := range s.Properties().All() {
			fmt.Fprintf(w, "  %-15s %s\n", k+":", v)
		}
		fmt.Fprintf(w, "  air/water/wl:   %t/%t/%t\n", s.IsAir(), s.IsWater(), s.IsWaterlogged())
		fmt.Fprintf(w, "  level/power:    %d/%d\n", s.LiquidLevel(), s.RedstonePower())
		fmt.Fprintf(w, "  hash:           %016x\n", s.Hash())
	}
	return firstErr
}

// runNormalize читает по строке на состояние и пишет канонический вид.
// Пустые строки и строки с '#' пропускаются; ошибочные заменяются на missing.
func runNormalize(r io.Reader, w io.Writer, p *palette.Palette, counter palette.FailureCounter) (int, error) {
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	n := 0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s := p.Canonical(palette.ParseOrMissing(line, counter))
		if _, err := fmt.Fprintln(bw, s); err != nil {
			return n, err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	return n, bw.Flush()
}

func runImport(ctx context.Context, ps *storage.PaletteStorage, world, file string) error {
	in, closeIn, err := openInput(file)
	if err != nil {
		return err
	}
	defer closeIn()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	snap, err := ps.ImportSnapshot(ctx, world, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Импортирован снимок %s: %d состояний, %d missing\n", snap.ID, len(snap.States), snap.Missing)
	return nil
}

func runExport(ctx context.Context, ps *storage.PaletteStorage, world, file string) error {
	data, id, err := ps.ExportSnapshot(ctx, world)
	if err != nil {
		return err
	}

	if file == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Снимок %s записан в %s\n", id, file)
	return nil
}

func openInput(file string) (io.Reader, func(), error) {
	if file == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
