package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/thermozone/internal/ports"
)

// Register map.
//
// Holding registers (read/write):
//
//	0 heating setpoint, °C x100
//	1 cooling setpoint, °C x100
//	2 heating capacity, W/10
//	3 cooling capacity, W/10 (negative)
//
// Input registers (read only):
//
//	0 air temperature, °C x100
//	1 operative temperature, °C x100
//	2 mass temperature, °C x100
//	3 delivered power, W/10 (negative when cooling)
//	4 demand (0 none, 1 heating, 2 cooling)
//
// Discrete input 0 is set when the last hour was capacity limited.
const (
	holdingCount  = 4
	inputCount    = 5
	discreteCount = 1
)

// Config for the Modbus controller.
type Config struct {
	DeviceID string
	Addr     string
	UnitID   byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

// Controller exposes a single zone as a Modbus TCP unit.
type Controller struct {
	svc ports.ZoneService
	cfg Config
	log *slog.Logger

	serv *mbserver.Server
}

func New(svc ports.ZoneService, cfg Config, log *slog.Logger) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{svc: svc, cfg: cfg, log: log.With("controller", "modbus", "zone", svc.Get().ID)}, nil
}

// Run starts the Modbus server and registers handlers that apply writes immediately and
// serve reads directly from the zone. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	serv.RegisterFunctionHandler(2, c.readDiscreteInputs)
	serv.RegisterFunctionHandler(3, func(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		return readRegisters(frame.GetData(), holdingCount, c.holding)
	})
	serv.RegisterFunctionHandler(4, func(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		return readRegisters(frame.GetData(), inputCount, c.input)
	})
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	// Now start listening after all handlers are registered.
	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.Info("modbus listening", "addr", c.cfg.Addr, "unit_id", c.cfg.UnitID)

	// Block until ctx.Done()
	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

func (c *Controller) holding(addr int) uint16 {
	s := c.svc.Get()
	switch addr {
	case 0:
		return encodeTemp(s.HeatingSetpoint)
	case 1:
		return encodeTemp(s.CoolingSetpoint)
	case 2:
		return encodePower(s.HeatingMax)
	default:
		return encodePower(s.CoolingMax)
	}
}

func (c *Controller) input(addr int) uint16 {
	s := c.svc.Get()
	switch addr {
	case 0:
		return encodeTemp(s.ThetaAir)
	case 1:
		return encodeTemp(s.ThetaOp)
	case 2:
		return encodeTemp(s.ThetaM)
	case 3:
		return encodePower(s.PhiHCNd)
	default:
		return uint16(s.Demand)
	}
}

// Read Discrete Inputs (function 2).
func (c *Controller) readDiscreteInputs(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(data[0:2])
	qty := binary.BigEndian.Uint16(data[2:4])
	if qty == 0 || qty > 2000 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if int(start)+int(qty) > discreteCount {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	bit := byte(0)
	if c.svc.Get().Limited {
		bit = 0x01
	}
	// response: byte count (1) + input bytes
	return []byte{1, bit}, &mbserver.Success
}

// Write Single Register (function 6).
func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if ex := c.write(int(addr), value); ex != nil {
		return []byte{}, ex
	}

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

// Write Multiple Registers (function 16).
func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if ex := c.write(int(start)+i, val); ex != nil {
			return []byte{}, ex
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) write(addr int, value uint16) *mbserver.Exception {
	var err error
	switch addr {
	case 0:
		err = c.svc.SetHeatingSetpoint(decodeTemp(value))
	case 1:
		err = c.svc.SetCoolingSetpoint(decodeTemp(value))
	case 2:
		err = c.svc.SetHeatingMax(decodePower(value))
	case 3:
		err = c.svc.SetCoolingMax(decodePower(value))
	default:
		return &mbserver.IllegalDataAddress
	}
	if err != nil {
		c.log.Warn("register write rejected", "register", addr, "err", err)
		return &mbserver.IllegalDataValue
	}
	return nil
}

// readRegisters serves functions 3 and 4 over registers 0..count-1.
func readRegisters(data []byte, count int, value func(addr int) uint16) ([]byte, *mbserver.Exception) {
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := int(binary.BigEndian.Uint16(data[0:2]))
	qty := int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > 125 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	if start+qty > count {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	// Build response: byte count + register bytes
	byteCount := qty * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i := range qty {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], value(start+i))
	}
	return resp, &mbserver.Success
}

const (
	TemperatureScale float64 = 100
	PowerScale       float64 = 10 // W per count
)

func encodeInt16(v float64) uint16 {
	r := min(max(math.Round(v), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func encodeTemp(v float64) uint16 {
	return encodeInt16(v * TemperatureScale)
}

func decodeTemp(u uint16) float64 {
	return float64(int16(u)) / TemperatureScale
}

func encodePower(w float64) uint16 {
	return encodeInt16(w / PowerScale)
}

func decodePower(u uint16) float64 {
	return float64(int16(u)) * PowerScale
}
