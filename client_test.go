package modbus

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/scadalink/modbus/config"
	"github.com/scadalink/modbus/internal/mbapframe"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
	"github.com/scadalink/modbus/transport"
)

// fakeServer is a minimal one-shot MBAP responder driven by a handler
// function, standing in for a real MODBUS server (out of scope here; see
// DESIGN.md).
type fakeServer struct {
	ln      net.Listener
	handler func(unitID uint8, req *pdu.PDU) *pdu.Response
}

func newFakeServer(t *testing.T, handler func(unitID uint8, req *pdu.PDU) *pdu.Response) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &fakeServer{ln: ln, handler: handler}
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *fakeServer) handleConn(conn net.Conn) {
	defer conn.Close()
	var dec mbapframe.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				adu, ok, derr := dec.Next()
				if derr != nil || !ok {
					break
				}
				header, pduBytes, uerr := mbapframe.UnwrapADU(adu)
				if uerr != nil {
					continue
				}
				reqPDU, perr := pdu.ParsePDU(pduBytes)
				if perr != nil {
					continue
				}
				if header.UnitID == 0 {
					continue // broadcast: no reply
				}
				resp := s.handler(header.UnitID, reqPDU)
				if resp == nil {
					continue
				}
				out := mbapframe.WrapADU(header.TransactionID, header.UnitID, resp.Bytes())
				if _, err := conn.Write(out); err != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }
func (s *fakeServer) close()       { s.ln.Close() }

func TestClientReadHoldingRegistersRoundTrip(t *testing.T) {
	srv := newFakeServer(t, func(unitID uint8, req *pdu.PDU) *pdu.Response {
		if req.FunctionCode != modbus.FuncCodeReadHoldingRegisters {
			return nil
		}
		return pdu.NewResponse(modbus.FuncCodeReadHoldingRegisters, []byte{0x04, 0x00, 0x0A, 0x00, 0x14})
	})
	defer srv.close()

	client := NewTCPClient(srv.addr())
	client.SetSlaveID(1)
	client.SetTimeout(time.Second)
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	values, err := client.ReadHoldingRegisters(0, 2)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters: %v", err)
	}
	want := []uint16{10, 20}
	if len(values) != 2 || values[0] != want[0] || values[1] != want[1] {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestClientConnectTwiceFailsAlreadyConnected(t *testing.T) {
	srv := newFakeServer(t, func(uint8, *pdu.PDU) *pdu.Response { return nil })
	defer srv.close()

	client := NewTCPClient(srv.addr())
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if err := client.Connect(); err != ErrAlreadyConnected {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
}

func TestClientInvalidParameterNeverRetried(t *testing.T) {
	client := NewTCPClient("127.0.0.1:1")
	client.SetRetryCount(5)
	client.SetRetryDelay(time.Millisecond)

	start := time.Now()
	_, err := client.ReadHoldingRegisters(0, 0) // quantity 0 is invalid, fails before any I/O
	elapsed := time.Since(start)

	var invalid *InvalidParameterError
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidParameterError, got %T: %v", err, err)
	}
	if elapsed > 50*time.Millisecond {
		t.Fatalf("invalid parameter should fail fast without retrying, took %v", elapsed)
	}
}

func TestClientModbusExceptionNeverRetried(t *testing.T) {
	attempts := 0
	srv := newFakeServer(t, func(unitID uint8, req *pdu.PDU) *pdu.Response {
		attempts++
		return pdu.NewExceptionResponse(req.FunctionCode, modbus.ExceptionCodeIllegalDataAddress)
	})
	defer srv.close()

	client := NewTCPClient(srv.addr())
	client.SetSlaveID(1)
	client.SetTimeout(time.Second)
	client.SetRetryCount(3)
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	_, err := client.ReadHoldingRegisters(0, 1)
	if err == nil {
		t.Fatal("expected a ModbusException error")
	}
	time.Sleep(50 * time.Millisecond) // let any stray retry land, if the bug exists
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt for a ModbusException response, got %d", attempts)
	}
}

func TestClientBroadcastDoesNotWaitForReply(t *testing.T) {
	srv := newFakeServer(t, func(uint8, *pdu.PDU) *pdu.Response { return nil })
	defer srv.close()

	client := NewTCPClient(srv.addr())
	client.SetTimeout(3 * time.Second)
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	start := time.Now()
	if err := client.BroadcastWriteSingleCoil(0, true); err != nil {
		t.Fatalf("BroadcastWriteSingleCoil: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("broadcast should not wait for a reply, took %v", elapsed)
	}
}

func TestClientNotConnectedWithReconnectDisabled(t *testing.T) {
	cfg := config.Default(config.TransportTCP)
	cfg.Host, cfg.Port = "127.0.0.1", 1
	cfg.Reconnect.Kind = config.ReconnectDisabled

	client := NewClient(transport.NewTCPTransport(cfg.Address()), cfg)
	_, err := client.ReadHoldingRegisters(0, 1)
	if err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
