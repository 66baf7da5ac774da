// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/icm_telemetry/internal/config"
	"github.com/relabs-tech/icm_telemetry/internal/icm20948"
	"github.com/relabs-tech/icm_telemetry/internal/imu"
	"github.com/relabs-tech/icm_telemetry/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// registerDevice is what the register debug tool drives. *telemetry.Adapter
// satisfies it.
type registerDevice interface {
	Init() icm20948.ReturnCode
	Fetch() telemetry.FetchStatus
	Gyro() icm20948.Gyro
	Accel() icm20948.Accel
	ReadRegister(bank, reg byte) (byte, icm20948.ReturnCode)
	WriteRegister(bank, reg, value byte) icm20948.ReturnCode
}

// RegisterCmd is one websocket request.
type RegisterCmd struct {
	Action string `json:"action"` // get_map, read, read_all, write, init, export_config
	Bank   byte   `json:"bank,omitempty"`
	Addr   string `json:"addr,omitempty"`
	Value  string `json:"value,omitempty"`
}

// RegisterResponse is one websocket reply.
type RegisterResponse struct {
	Type        string                  `json:"type"` // "register_data", "register_map", "status", "export_config", "error"
	Bank        byte                    `json:"bank"`
	Address     string                  `json:"addr,omitempty"`
	Value       string                  `json:"value,omitempty"`
	Registers   map[string]string       `json:"registers,omitempty"` // "bank:0xAA" -> "0xVV"
	Timestamp   string                  `json:"timestamp,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Status      string                  `json:"status,omitempty"`
	RegisterMap []icm20948.RegisterInfo `json:"register_map,omitempty"`
	Config      string                  `json:"config,omitempty"`
	Filename    string                  `json:"filename,omitempty"`
}

// RegisterConfigFile is the JSON document produced by export_config.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"`
}

// RegisterDebugServer serves the register debug websocket and the live IMU
// endpoint. All chip access goes through mu so only one transaction holds
// chip-select at a time.
type RegisterDebugServer struct {
	mu     sync.Mutex
	dev    registerDevice
	source string
	cfg    *config.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewRegisterDebugServer(dev registerDevice, source string, cfg *config.Config, log *zap.Logger) *RegisterDebugServer {
	return &RegisterDebugServer{
		dev:    dev,
		source: source,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Routes registers the server's handlers on mux.
func (s *RegisterDebugServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/api/imu", s.HandleIMUData)
}

// HandleWS handles one websocket session.
func (s *RegisterDebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("register_debug: websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(s.registerMap()); err != nil {
		s.log.Warn("register_debug: error sending register map", zap.Error(err))
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("register_debug: websocket error", zap.Error(err))
			}
			return
		}
		if err := conn.WriteJSON(s.handle(cmd)); err != nil {
			s.log.Warn("register_debug: websocket write error", zap.Error(err))
			return
		}
	}
}

func (s *RegisterDebugServer) handle(cmd RegisterCmd) RegisterResponse {
	switch cmd.Action {
	case "get_map":
		return s.registerMap()
	case "read":
		return s.handleRead(cmd)
	case "read_all":
		return s.handleReadAll()
	case "write":
		return s.handleWrite(cmd)
	case "init":
		return s.handleInit()
	case "export_config":
		return s.handleExportConfig()
	default:
		return errorResponse(fmt.Sprintf("unknown action: %q", cmd.Action))
	}
}

func (s *RegisterDebugServer) handleRead(cmd RegisterCmd) RegisterResponse {
	addr, err := parseHexByte(cmd.Addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Addr))
	}

	s.mu.Lock()
	value, rc := s.dev.ReadRegister(cmd.Bank, addr)
	s.mu.Unlock()
	if rc != icm20948.OK {
		return errorResponse(fmt.Sprintf("read error: %s", rc))
	}

	return RegisterResponse{
		Type:      "register_data",
		Bank:      cmd.Bank,
		Address:   hexByte(addr),
		Value:     hexByte(value),
		Timestamp: s.now().Format(time.RFC3339),
	}
}

func (s *RegisterDebugServer) handleReadAll() RegisterResponse {
	regs, err := s.readAll()
	if err != nil {
		return errorResponse(fmt.Sprintf("read all error: %v", err))
	}
	return RegisterResponse{
		Type:      "register_data",
		Registers: regs,
		Timestamp: s.now().Format(time.RFC3339),
	}
}

func (s *RegisterDebugServer) handleWrite(cmd RegisterCmd) RegisterResponse {
	addr, err := parseHexByte(cmd.Addr)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid address format: %q", cmd.Addr))
	}
	value, err := parseHexByte(cmd.Value)
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid value format: %q", cmd.Value))
	}
	if !s.cfg.Writable(cmd.Bank, addr) {
		return errorResponse(fmt.Sprintf("register %d:%s not in allowed write ranges", cmd.Bank, hexByte(addr)))
	}

	s.mu.Lock()
	rc := s.dev.WriteRegister(cmd.Bank, addr, value)
	s.mu.Unlock()
	if rc != icm20948.OK {
		return errorResponse(fmt.Sprintf("write error: %s", rc))
	}

	s.log.Info("register_debug: register written",
		zap.Uint8("bank", cmd.Bank), zap.String("addr", hexByte(addr)), zap.String("value", hexByte(value)))
	return RegisterResponse{
		Type:      "register_data",
		Bank:      cmd.Bank,
		Address:   hexByte(addr),
		Value:     hexByte(value),
		Timestamp: s.now().Format(time.RFC3339),
		Message:   "write successful",
	}
}

func (s *RegisterDebugServer) handleInit() RegisterResponse {
	s.mu.Lock()
	rc := s.dev.Init()
	s.mu.Unlock()
	if rc != icm20948.OK {
		return errorResponse(fmt.Sprintf("reinit error: %s", rc))
	}
	return RegisterResponse{
		Type:    "status",
		Status:  "initialized",
		Message: "IMU reinitialized successfully",
	}
}

func (s *RegisterDebugServer) handleExportConfig() RegisterResponse {
	regs, err := s.readAll()
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}

	now := s.now()
	file := RegisterConfigFile{
		Version:   1,
		Device:    s.source,
		Timestamp: now.Format(time.RFC3339),
		Registers: regs,
	}
	configJSON, err := json.Marshal(file)
	if err != nil {
		return errorResponse(fmt.Sprintf("export error: %v", err))
	}

	return RegisterResponse{
		Type:     "export_config",
		Message:  "config exported",
		Config:   string(configJSON),
		Filename: fmt.Sprintf("%s_%s_registers.json", s.source, now.Format("20060102_150405")),
	}
}

// readAll reads every readable register in the map, bank by bank.
func (s *RegisterDebugServer) readAll() (map[string]string, error) {
	infos := icm20948.RegisterMap()
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Bank < infos[j].Bank })

	s.mu.Lock()
	defer s.mu.Unlock()

	regs := make(map[string]string, len(infos))
	for _, info := range infos {
		if !info.Readable() {
			continue
		}
		addr, err := info.Addr()
		if err != nil {
			return nil, err
		}
		value, rc := s.dev.ReadRegister(info.Bank, addr)
		if rc != icm20948.OK {
			return nil, fmt.Errorf("%s: %w", info.Name, rc.AsError())
		}
		regs[registerKey(info.Bank, addr)] = hexByte(value)
	}
	return regs, nil
}

func (s *RegisterDebugServer) registerMap() RegisterResponse {
	return RegisterResponse{
		Type:        "register_map",
		RegisterMap: icm20948.RegisterMap(),
	}
}

// HandleIMUData serves one fresh reading as JSON.
func (s *RegisterDebugServer) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s.mu.Lock()
	st := s.dev.Fetch()
	reading := imu.NewReading(s.source, s.dev, st, s.now())
	s.mu.Unlock()

	if err := json.NewEncoder(w).Encode(reading); err != nil {
		s.log.Warn("register_debug: json encode error", zap.Error(err))
	}
}

func errorResponse(message string) RegisterResponse {
	return RegisterResponse{
		Type:    "error",
		Message: message,
	}
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}

func registerKey(bank, addr byte) string {
	return fmt.Sprintf("%d:%s", bank, hexByte(addr))
}
