// Package gpsingest parses NMEA sentences off a serial GPS receiver and
// forwards them to a TCP endpoint in fixed-size blocks (spec.md §6).
package gpsingest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"

	"github.com/ancient-mariner/kharon/common"
)

const (
	// BaudRate and framing per spec.md §6 "GPS ingest (serial, 4800
	// 8N1)".
	BaudRate   = 4800
	BlockBytes = 256
)

// OpenSerial opens the GPS serial port at the fixed 4800 8N1 framing.
func OpenSerial(device string) (io.ReadCloser, error) {
	cfg := &serial.Config{Name: device, Baud: BaudRate, Size: 8, Parity: serial.ParityNone, StopBits: serial.Stop1}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, common.NewError(common.CategoryConfigMissing, "gpsingest.OpenSerial", err)
	}
	return port, nil
}

// ExtractSentence finds one NMEA sentence between '$' and its trailing
// "*HH" checksum in line, validating the XOR checksum over the body.
// Malformed sentences are dropped (spec.md §7 category 6: protocol
// violations are dropped and logged, not fatal).
func ExtractSentence(line string) (sentence string, ok bool) {
	start := -1
	for i, c := range line {
		if c == '$' {
			start = i
			break
		}
	}
	if start < 0 || len(line) < start+1+3 {
		return "", false
	}
	star := -1
	for i := start + 1; i < len(line)-2; i++ {
		if line[i] == '*' {
			star = i
			break
		}
	}
	if star < 0 {
		return "", false
	}
	body := line[start+1 : star]
	wantSum := fmt.Sprintf("%02X", xorChecksum(body))
	gotSum := line[star+1 : star+3]
	if !equalFoldHex(wantSum, gotSum) {
		return "", false
	}
	return line[start : star+3], true
}

func xorChecksum(s string) byte {
	var c byte
	for i := 0; i < len(s); i++ {
		c ^= s[i]
	}
	return c
}

func equalFoldHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'f' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'f' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Fix is a parsed GPS position fix ready for the route controller.
type Fix struct {
	Lat, Lon  float64
	Timestamp time.Time
	Valid     bool
}

// ParseFix parses a validated NMEA sentence (GGA or RMC) into a Fix using
// adrianmo/go-nmea. Sentence types the route controller doesn't need
// (e.g. GSV, GSA) return a zero Fix (Valid false) and a nil error.
func ParseFix(sentence string) (Fix, error) {
	parsed, err := nmea.Parse(sentence)
	if err != nil {
		return Fix{}, common.NewError(common.CategoryProtocolViolation, "gpsingest.ParseFix", err)
	}
	switch s := parsed.(type) {
	case nmea.GGA:
		return Fix{Lat: s.Latitude, Lon: s.Longitude, Valid: s.FixQuality != "0"}, nil
	case nmea.RMC:
		return Fix{Lat: s.Latitude, Lon: s.Longitude, Valid: s.Validity == "A"}, nil
	default:
		return Fix{}, nil
	}
}

// ForwardLoop reads lines from r, validates and timestamps each NMEA
// sentence, and writes "<timestamp> <sentence>" to conn in BlockBytes
// blocks, per spec.md §6.
func ForwardLoop(r io.Reader, conn net.Conn) error {
	log := common.NewLogger("gpsingest")
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, BlockBytes)

	for scanner.Scan() {
		line := scanner.Text()
		sentence, ok := ExtractSentence(line)
		if !ok {
			log.Warn("dropping malformed NMEA line")
			continue
		}
		stamped := fmt.Sprintf("%d %s\n", time.Now().UnixNano(), sentence)
		buf = append(buf, stamped...)
		for len(buf) >= BlockBytes {
			if _, err := conn.Write(buf[:BlockBytes]); err != nil {
				return common.NewError(common.CategoryTransientIO, "gpsingest.ForwardLoop", err)
			}
			buf = buf[BlockBytes:]
		}
	}
	if err := scanner.Err(); err != nil {
		return common.NewError(common.CategoryTransientIO, "gpsingest.ForwardLoop", err)
	}
	return nil
}
