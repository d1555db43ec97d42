// Package postmaster implements the TCP command plane (spec.md §6): fixed
// request/response framing, a SQLite-backed command audit log, and a
// WebSocket live-status fan-out for the local operator console.
package postmaster

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ancient-mariner/kharon/common"
)

// RequestType enumerates the postmaster wire protocol's request kinds
// (spec.md §6).
type RequestType uint32

const (
	ReqNull RequestType = iota
	ReqAnnotation
	ReqShutdown
	ReqAutopilotOn
	ReqAutopilotOff
	ReqSetHeading
	ReqSetDestination
	ReqModulePause
	ReqModuleResume
)

const (
	requestHeaderBytes  = 4 + 4 + 4*3 // request_type, header_bytes, custom_0..2
	responseHeaderBytes = 4 + 4 + 32 + 4*3
	timestampFieldBytes = 32
)

// Request is one decoded fixed-size request header plus its payload.
type Request struct {
	Type    RequestType
	Custom0 int32
	Custom1 int32
	Custom2 int32
	Payload []byte
}

// Response is one encoded fixed-size response header plus its payload.
type Response struct {
	Type      RequestType
	Timestamp time.Time
	Custom0   int32
	Custom1   int32
	Custom2   int32
	Payload   []byte
}

// ReadRequest decodes one fixed-size request header (network byte order)
// followed by header_bytes of payload, from r.
func ReadRequest(r io.Reader) (Request, error) {
	hdr := make([]byte, requestHeaderBytes)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return Request{}, common.NewError(common.CategoryTransientIO, "postmaster.ReadRequest", err)
	}
	req := Request{
		Type: RequestType(binary.BigEndian.Uint32(hdr[0:4])),
	}
	payloadLen := binary.BigEndian.Uint32(hdr[4:8])
	req.Custom0 = int32(binary.BigEndian.Uint32(hdr[8:12]))
	req.Custom1 = int32(binary.BigEndian.Uint32(hdr[12:16]))
	req.Custom2 = int32(binary.BigEndian.Uint32(hdr[16:20]))

	if payloadLen > 0 {
		req.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, req.Payload); err != nil {
			return Request{}, common.NewError(common.CategoryProtocolViolation, "postmaster.ReadRequest", err)
		}
	}
	return req, nil
}

// WriteResponse encodes and writes a fixed-size response header (network
// byte order, printf-`%.4f`-style ASCII timestamp) followed by its
// payload.
func WriteResponse(w io.Writer, resp Response) error {
	hdr := make([]byte, responseHeaderBytes)
	binary.BigEndian.PutUint32(hdr[0:4], uint32(resp.Type))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(resp.Payload)))

	ts := fmt.Sprintf("%.4f", float64(resp.Timestamp.UnixNano())/1e9)
	copy(hdr[8:8+timestampFieldBytes], []byte(ts))

	off := 8 + timestampFieldBytes
	binary.BigEndian.PutUint32(hdr[off:off+4], uint32(resp.Custom0))
	binary.BigEndian.PutUint32(hdr[off+4:off+8], uint32(resp.Custom1))
	binary.BigEndian.PutUint32(hdr[off+8:off+12], uint32(resp.Custom2))

	if _, err := w.Write(hdr); err != nil {
		return common.NewError(common.CategoryTransientIO, "postmaster.WriteResponse", err)
	}
	if len(resp.Payload) > 0 {
		if _, err := w.Write(resp.Payload); err != nil {
			return common.NewError(common.CategoryTransientIO, "postmaster.WriteResponse", err)
		}
	}
	return nil
}

// Handler processes one decoded request and returns the response to send
// back, e.g. the route controller's SetDestination/SetHeading bridge.
type Handler func(Request) Response

// Serve accepts connections on ln and dispatches each request on each
// connection through handle, logging and continuing past per-connection
// errors rather than taking the whole command plane down (spec.md §7
// category 6: protocol violations are dropped and logged, not fatal).
func Serve(ln net.Listener, handle Handler) error {
	log := common.NewLogger("postmaster")
	for {
		conn, err := ln.Accept()
		if err != nil {
			return common.NewError(common.CategoryTransientIO, "postmaster.Serve", err)
		}
		go func() {
			defer conn.Close()
			for {
				req, err := ReadRequest(conn)
				if err != nil {
					log.WithError(err).Warn("dropping connection after malformed request")
					return
				}
				resp := handle(req)
				if err := WriteResponse(conn, resp); err != nil {
					log.WithError(err).Warn("failed writing response")
					return
				}
			}
		}()
	}
}
