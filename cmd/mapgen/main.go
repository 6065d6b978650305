package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/repository/sqlite"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		sizeName  string
		seed      int64
		fill      float64
		fractions int
		out       string
		archive   string
		quiet     bool
	)

	flag.StringVar(&sizeName, "size", "small", "Map size (small, medium, large)")
	flag.Int64Var(&seed, "seed", 0, "Generator seed (0 = random)")
	flag.Float64Var(&fill, "fill", 0, "Land share before smoothing (0 = default)")
	flag.IntVar(&fractions, "fractions", 2, "Number of fractions to place")
	flag.StringVar(&out, "out", "", "Write the opening state JSON to this file")
	flag.StringVar(&archive, "archive", "", "Store the map in this sqlite archive")
	flag.BoolVar(&quiet, "q", false, "Skip the ASCII render")
	flag.Parse()

	size, err := hexgame.ParseMapSize(sizeName)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad -size")
	}
	if fractions < 1 {
		log.Fatal().Int("fractions", fractions).Msg("Need at least one fraction")
	}

	m := hexgame.GenerateMap(hexgame.MapConfig{Size: size, Seed: seed, FillPercent: fill, Fractions: fractions})
	if !quiet {
		fmt.Print(m.Render())
	}
	printStats(m)

	id := uuid.NewString()
	players := make([]string, fractions)
	for i := range players {
		players[i] = fmt.Sprintf("player-%d", i+1)
	}
	state, err := hexgame.EncodeGame(m.ToSerializedGame(id, players))
	if err != nil {
		log.Fatal().Err(err).Msg("Encode failed")
	}
	fmt.Printf("state:     %s\n", humanize.Bytes(uint64(len(state))))

	if out != "" {
		if err := os.WriteFile(out, state, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", out).Msg("Write failed")
		}
		log.Info().Str("path", out).Msg("Opening state written")
	}

	if archive != "" {
		a, err := sqlite.Open(archive)
		if err != nil {
			log.Fatal().Err(err).Str("path", archive).Msg("Archive open failed")
		}
		defer a.Close()
		err = a.SaveMap(context.Background(), sqlite.GeneratedMap{
			ID:        id,
			Seed:      m.Seed,
			Size:      size.String(),
			Width:     m.Width(),
			Height:    m.Height(),
			State:     string(state),
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Archive save failed")
		}
		log.Info().Str("id", id).Str("path", archive).Msg("Map archived")
	}
}

func printStats(m *hexgame.MapData) {
	st := m.Stats()
	fmt.Printf("seed:      %d\n", m.Seed)
	fmt.Printf("size:      %dx%d\n", m.Width(), m.Height())
	fmt.Printf("land:      %s of %s cells (%d%%)\n", humanize.Comma(int64(st.Land)), humanize.Comma(int64(st.Cells)), st.Land*100/max(st.Cells, 1))
	fmt.Printf("trees:     %s\n", humanize.Comma(int64(st.Trees)))

	fracs := make([]int, 0, len(st.PerFraction))
	for f := range st.PerFraction {
		fracs = append(fracs, f)
	}
	sort.Ints(fracs)
	for _, f := range fracs {
		fmt.Printf("fraction %d: %s hexes\n", f, humanize.Comma(int64(st.PerFraction[f])))
	}
}
