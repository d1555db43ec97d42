// Command kharon-beacongen is the offline "build" phase of the beacon
// graph (spec.md §4.4): it sweeps default beacon placements across the
// globe, filters them against the world map and declination table, and
// runs the per-beacon neighbor-association job, writing beacons.bin and
// beacons.idx. This is the Go descendant of the original
// pharos/default_beacons.c tool.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ancient-mariner/kharon/common"
	"github.com/ancient-mariner/kharon/internal/beacon"
	"github.com/ancient-mariner/kharon/internal/declination"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

type config struct {
	mapRoot        string
	declPath       string
	beaconsPath    string
	indexPath      string
	resumeExisting bool
}

func parseFlags() config {
	var c config
	flag.StringVar(&c.mapRoot, "map-root", "/opt/kharon/charlie/map", "world map tile store root")
	flag.StringVar(&c.declPath, "declination", "/opt/kharon/charlie/magnetic.txt", "magnetic declination/inclination table")
	flag.StringVar(&c.beaconsPath, "beacons", "/opt/kharon/charlie/beacons.bin", "output beacon record file")
	flag.StringVar(&c.indexPath, "index", "/opt/kharon/charlie/beacons.idx", "output beacon row index file")
	flag.BoolVar(&c.resumeExisting, "resume", false, "resume association from an existing beacons.bin, skipping already-processed records")
	flag.Parse()
	return c
}

// quitOnSignal closes the returned channel the first time SIGINT or
// SIGUSR1 is received, matching the "long offline jobs... set a quit flag
// checked at the top of each outer row" cancellation contract (spec.md
// §5). A second SIGINT aborts the process immediately.
func quitOnSignal(log *logrus.Entry) <-chan struct{} {
	quit := make(chan struct{})
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGUSR1)
	go func() {
		first := true
		for sig := range sigs {
			log.WithField("signal", sig.String()).Warn("cancellation requested, finishing current row")
			if first {
				close(quit)
				first = false
				continue
			}
			log.Warn("second interrupt, aborting immediately")
			os.Exit(130)
		}
	}()
	return quit
}

func main() {
	cfg := parseFlags()
	log := common.NewLogger("kharon-beacongen")

	store, err := worldmap.Open(cfg.mapRoot)
	if err != nil {
		log.WithError(err).Fatal("opening world map store")
	}

	decl, err := declination.Load(cfg.declPath)
	if err != nil {
		log.WithError(err).Warn("no declination table, magnetic-pole exclusion disabled")
		decl = nil
	}

	var recs []beacon.Record
	if cfg.resumeExisting {
		recs, err = beacon.LoadRecords(cfg.beaconsPath)
		if err != nil {
			log.WithError(err).Warn("no existing beacons.bin to resume from, starting fresh")
			recs = nil
		}
	}
	if recs == nil {
		log.Info("sweeping default beacon placement")
		cands := beacon.DefaultPlacement(store, decl)
		recs = beacon.RecordsFromCandidates(cands)
		log.WithField("count", len(recs)).Info("placement swept and filtered")
	}

	t := beacon.NewTable(recs)
	quit := quitOnSignal(log)

	dump := func(out []beacon.Record) {
		if err := beacon.SaveRecords(cfg.beaconsPath, out); err != nil {
			log.WithError(err).Error("writing beacons.bin partial dump")
			return
		}
		if err := beacon.SaveIndex(cfg.indexPath, beacon.BuildIndex(out)); err != nil {
			log.WithError(err).Error("writing beacons.idx partial dump")
		}
	}

	log.Info("running offline neighbor association")
	if err := beacon.Associate(store, t, beacon.AssociateOptions{
		Quit:      quit,
		OnRowDone: dump,
	}); err != nil {
		log.WithError(err).Fatal("beacon association failed")
	}

	dump(t.Records)
	remaining := 0
	for i := range t.Records {
		if t.Records[i].Unprocessed() {
			remaining++
		}
	}
	if remaining > 0 {
		log.WithField("remaining", remaining).Warn("association incomplete; rerun with -resume to continue")
	} else {
		log.Info("beacon association complete")
	}
	fmt.Fprintf(os.Stderr, "wrote %d beacon records to %s\n", len(t.Records), cfg.beaconsPath)
}
