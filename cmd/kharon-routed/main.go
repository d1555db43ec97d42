// Command kharon-routed is the Kharon routing daemon: it owns the world
// map store, the beacon graph, the route controller, and the postmaster
// and kill-monitor external interfaces (spec.md §4, §6). It does not start
// GPS ingest, so nothing here feeds vessel positions to the controller.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/takama/daemon"

	"github.com/ancient-mariner/kharon/common"
	"github.com/ancient-mariner/kharon/internal/bam"
	"github.com/ancient-mariner/kharon/internal/beacon"
	"github.com/ancient-mariner/kharon/internal/killmonitor"
	"github.com/ancient-mariner/kharon/internal/postmaster"
	"github.com/ancient-mariner/kharon/internal/route"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

const (
	serviceName        = "kharon-routed"
	serviceDescription = "Kharon marine routing daemon"
	postmasterAddr     = ":7700"
	auditDBName        = "commands.db"
)

// config holds the daemon's startup knobs, read once at process start
// rather than kept as package globals, per the "globals become per-agent
// state" design note.
type config struct {
	mapRoot      string
	beaconsPath  string
	auditDir     string
	postmaster   string
	killMonitor  int
}

func parseFlags() config {
	var c config
	flag.StringVar(&c.mapRoot, "map-root", "/opt/kharon/charlie/map", "world map tile store root")
	flag.StringVar(&c.beaconsPath, "beacons", "/opt/kharon/charlie/beacons.bin", "beacon record file")
	flag.StringVar(&c.auditDir, "audit-dir", "/opt/kharon/charlie", "command audit log directory")
	flag.StringVar(&c.postmaster, "postmaster-addr", postmasterAddr, "postmaster TCP listen address")
	flag.IntVar(&c.killMonitor, "kill-monitor-port", killmonitor.Port, "kill-monitor TCP listen port")
	flag.Parse()
	return c
}

// service implements takama/daemon's Executable interface so kharon-routed
// can install and run itself as a system service.
type service struct {
	cfg  config
	ctrl *route.Controller
	log  *routeLogger
}

type routeLogger = interface {
	WithError(error) interface{ Warn(string) }
}

func (s *service) Start() {
	go s.run()
}

func (s *service) Stop() {}

func (s *service) Run() {
	s.run()
}

func (s *service) run() {
	log := common.NewLogger("kharon-routed")

	store, err := worldmap.Open(s.cfg.mapRoot)
	if err != nil {
		log.WithError(err).Fatal("opening world map store")
	}

	recs, err := beacon.LoadRecords(s.cfg.beaconsPath)
	if err != nil {
		log.WithError(err).Warn("no beacon file, starting with an empty beacon graph")
	}
	beacons := beacon.NewTable(recs)

	ctrl := route.New(store, beacons)
	s.ctrl = ctrl

	auditPath := s.cfg.auditDir + "/" + auditDBName
	audit, err := postmaster.OpenAuditLog(auditPath)
	if err != nil {
		log.WithError(err).Fatal("opening command audit log")
	}
	defer audit.Close()

	hub := postmaster.NewStatusHub()
	http.Handle("/status", hub)
	go func() {
		if err := http.ListenAndServe(":7701", nil); err != nil {
			log.WithError(err).Error("operator console http server exited")
		}
	}()

	ln, err := net.Listen("tcp", s.cfg.postmaster)
	if err != nil {
		log.WithError(err).Fatal("binding postmaster listener")
	}

	killLn, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.killMonitor))
	if err != nil {
		log.WithError(err).Fatal("binding kill-monitor listener")
	}
	go func() {
		if err := killmonitor.Serve(killLn, killmonitor.SystemRunner{}); err != nil {
			log.WithError(err).Error("kill-monitor server exited")
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			hub.Broadcast(snapshotOf(ctrl))
		}
	}()

	handle := func(req postmaster.Request) postmaster.Response {
		if err := audit.Record(req); err != nil {
			log.WithError(err).Warn("failed recording command audit entry")
		}
		return dispatch(ctrl, req)
	}
	if err := postmaster.Serve(ln, handle); err != nil {
		log.WithError(err).Fatal("postmaster server exited")
	}
}

func dispatch(ctrl *route.Controller, req postmaster.Request) postmaster.Response {
	resp := postmaster.Response{Type: req.Type, Timestamp: time.Now()}
	switch req.Type {
	case postmaster.ReqSetHeading:
		if req.Custom0 < 0 {
			ctrl.SetDefaultActiveCourse()
		} else {
			ctrl.OverrideActiveCourseAll(bam.FromDegrees16(float64(req.Custom0)))
		}
	case postmaster.ReqSetDestination:
		dest := worldmap.LatLon{
			Lon: bam.BAM32(req.Custom0).SignedDegrees(),
			Lat: bam.BAM32(req.Custom1).SignedDegrees(),
		}
		if err := ctrl.SetDestination(dest, float64(req.Custom2)); err != nil {
			resp.Custom0 = 1
			resp.Payload = []byte(err.Error())
		}
	case postmaster.ReqShutdown:
		resp.Payload = []byte("shutdown acknowledged")
	}
	return resp
}

func snapshotOf(ctrl *route.Controller) postmaster.StatusSnapshot {
	course, _ := ctrl.VesselTargetCourse()
	return postmaster.StatusSnapshot{
		VesselLat:       ctrl.VesselPos.Lat,
		VesselLon:       ctrl.VesselPos.Lon,
		DestLat:         ctrl.Destination.Lat,
		DestLon:         ctrl.Destination.Lon,
		ActiveCourseDeg: course.Degrees(),
		PersistentFlags: uint32(ctrl.Flags.Persistent),
		StateFlags:      uint32(ctrl.Flags.State),
	}
}

func main() {
	cfg := parseFlags()

	srv, err := daemon.New(serviceName, serviceDescription, daemon.SystemDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, "daemon.New:", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		var out string
		switch os.Args[1] {
		case "install":
			out, err = srv.Install()
		case "remove":
			out, err = srv.Remove()
		case "start":
			out, err = srv.Start()
		case "stop":
			out, err = srv.Stop()
		case "status":
			out, err = srv.Status()
		default:
			out, err = "", nil
		}
		if out != "" {
			fmt.Println(out)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if out != "" {
			return
		}
	}

	svc := &service{cfg: cfg}
	if _, err := srv.Run(svc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
