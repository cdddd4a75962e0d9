package transport

import (
	"net"
	"testing"
	"time"

	"github.com/scadalink/modbus/internal/dispatch"
	"github.com/scadalink/modbus/internal/mbapframe"
	"github.com/scadalink/modbus/modbus"
	"github.com/scadalink/modbus/pdu"
)

// newConnectedTCPTransport wires a TCPTransport directly onto one end of a
// net.Pipe, skipping the real Connect() dial so tests can drive the other
// end as a fake server.
func newConnectedTCPTransport(t *testing.T, conn net.Conn) *TCPTransport {
	t.Helper()
	tr := NewTCPTransportWithConfig(TCPTransportConfig{
		Timeout:     2 * time.Second,
		MaxInFlight: 4,
	})
	tr.conn = conn
	tr.connected = true
	tr.disp = dispatch.New(4)
	tr.readLoopDone = make(chan struct{})
	go tr.readLoop(conn, tr.readLoopDone)
	return tr
}

func TestTCPTransportSendRequestRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	tr := newConnectedTCPTransport(t, clientConn)

	go func() {
		buf := make([]byte, 256)
		n, err := serverConn.Read(buf)
		if err != nil {
			return
		}
		header, _, err := mbapframe.UnwrapADU(buf[:n])
		if err != nil {
			return
		}
		respPDU := pdu.NewResponse(modbus.FuncCodeReadHoldingRegisters, []byte{0x02, 0x00, 0x2A}).Bytes()
		adu := mbapframe.WrapADU(header.TransactionID, 1, respPDU)
		_, _ = serverConn.Write(adu)
	}()

	req, _ := pdu.ReadHoldingRegistersRequest(0, 1)
	resp, err := tr.SendRequest(1, req)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if resp.PDU.FunctionCode != modbus.FuncCodeReadHoldingRegisters {
		t.Fatalf("unexpected response function code: %v", resp.PDU.FunctionCode)
	}
}

// TestTCPTransportPipelinesOutOfOrderResponses drives the §8 "pipelining
// dispatch out of order" scenario: two concurrent requests, responses
// delivered in reverse order, and both callers complete without error.
func TestTCPTransportPipelinesOutOfOrderResponses(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	tr := newConnectedTCPTransport(t, clientConn)

	reqTxIDs := make(chan uint16, 2)
	go func() {
		buf := make([]byte, 256)
		for i := 0; i < 2; i++ {
			n, err := serverConn.Read(buf)
			if err != nil {
				return
			}
			header, _, err := mbapframe.UnwrapADU(buf[:n])
			if err != nil {
				return
			}
			reqTxIDs <- header.TransactionID
		}
		// Respond in reverse order of receipt.
		first := <-reqTxIDs
		second := <-reqTxIDs
		respPDU := pdu.NewResponse(modbus.FuncCodeReadHoldingRegisters, []byte{0x02, 0x00, 0x01}).Bytes()
		_, _ = serverConn.Write(mbapframe.WrapADU(second, 1, respPDU))
		_, _ = serverConn.Write(mbapframe.WrapADU(first, 1, respPDU))
	}()

	type result struct {
		resp *pdu.Response
		err  error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			req, _ := pdu.ReadHoldingRegistersRequest(0, 1)
			resp, err := tr.SendRequest(1, req)
			results <- result{resp, err}
		}()
	}

	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("SendRequest: %v", r.err)
		}
	}
}

func TestTCPTransportSendRequestFailsWhenNotConnected(t *testing.T) {
	tr := NewTCPTransport("127.0.0.1:1")
	req, _ := pdu.ReadHoldingRegistersRequest(0, 1)
	if _, err := tr.SendRequest(1, req); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
