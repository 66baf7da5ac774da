// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm20948

import (
	"fmt"
	"strconv"
	"strings"
)

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is register metadata used by the register debug tool.
type RegisterInfo struct {
	Bank        byte       `json:"bank"`
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// Addr parses the hex address of the register.
func (r RegisterInfo) Addr() (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(r.Address, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("register %s: bad address %q: %w", r.Name, r.Address, err)
	}
	return byte(v), nil
}

// Readable reports whether the register can be read back.
func (r RegisterInfo) Readable() bool {
	return strings.Contains(r.Access, "R")
}

// RegisterMap returns metadata for the ICM-20948 registers the driver and
// the debug tool touch.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Bank 0: identification and power
		{Bank: 0, Address: "0x00", Name: "WHO_AM_I", Description: "Device ID (should be 0xEA)", Access: "R", Default: "0xEA"},
		{Bank: 0, Address: "0x03", Name: "USER_CTRL", Description: "User Control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "DMP_EN", Description: "Enable DMP", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "I2C_MST_EN", Description: "Enable I2C Master", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "I2C_IF_DIS", Description: "Reset I2C slave and use SPI only", Values: "1=SPI only"},
				{Bits: "3", Name: "DMP_RST", Description: "Reset DMP", Values: "1=Reset"},
				{Bits: "2", Name: "SRAM_RST", Description: "Reset SRAM", Values: "1=Reset"},
				{Bits: "1", Name: "I2C_MST_RST", Description: "Reset I2C Master", Values: "1=Reset"},
			}},
		{Bank: 0, Address: "0x05", Name: "LP_CONFIG", Description: "Low Power Configuration", Access: "RW", Default: "0x40",
			BitFields: []BitField{
				{Bits: "6", Name: "I2C_MST_CYCLE", Description: "I2C master duty cycled", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ACCEL_CYCLE", Description: "Accel duty cycled", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4", Name: "GYRO_CYCLE", Description: "Gyro duty cycled", Values: "0=Disabled, 1=Enabled"},
			}},
		{Bank: 0, Address: "0x06", Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: "0x41",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset device"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "LP_EN", Description: "Low power enable", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 20MHz, 1-5=Auto select best, 7=Stop"},
			}},
		{Bank: 0, Address: "0x07", Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:3", Name: "DISABLE_ACCEL", Description: "Disable accelerometer axes", Values: "0=On, 7=All off"},
				{Bits: "2:0", Name: "DISABLE_GYRO", Description: "Disable gyroscope axes", Values: "0=On, 7=All off"},
			}},
		{Bank: 0, Address: "0x0F", Name: "INT_PIN_CFG", Description: "INT Pin / Bypass Enable Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "INT1_ACTL", Description: "INT1 active low", Values: "0=Active high, 1=Active low"},
				{Bits: "6", Name: "INT1_OPEN", Description: "INT1 open drain", Values: "0=Push-pull, 1=Open drain"},
				{Bits: "5", Name: "INT1_LATCH_EN", Description: "Latch INT1", Values: "0=50us pulse, 1=Latch until cleared"},
				{Bits: "1", Name: "BYPASS_EN", Description: "I2C bypass enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Bank: 0, Address: "0x10", Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "3", Name: "WOM_INT_EN", Description: "Wake on Motion interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "1", Name: "DMP_INT1_EN", Description: "DMP interrupt on INT1", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "I2C_MST_INT_EN", Description: "I2C master interrupt on INT1", Values: "0=Disabled, 1=Enabled"},
			}},
		{Bank: 0, Address: "0x1A", Name: "INT_STATUS_1", Description: "Raw data ready status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "0", Name: "RAW_DATA_0_RDY_INT", Description: "Raw data ready"},
			}},

		// Bank 0: sensor data
		{Bank: 0, Address: "0x2D", Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x2E", Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x2F", Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x30", Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x31", Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x32", Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x33", Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x34", Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x35", Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x36", Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x37", Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Bank: 0, Address: "0x38", Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},
		{Bank: 0, Address: "0x39", Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Bank: 0, Address: "0x3A", Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},

		// Bank 2: sample rate and full scale
		{Bank: 2, Address: "0x00", Name: "GYRO_SMPLRT_DIV", Description: "Gyro Sample Rate Divider", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "GYRO_SMPLRT_DIV", Description: "ODR = 1.1kHz / (1 + GYRO_SMPLRT_DIV)", Values: "0-255"},
			}},
		{Bank: 2, Address: "0x01", Name: "GYRO_CONFIG_1", Description: "Gyroscope Configuration 1", Access: "RW", Default: "0x01",
			BitFields: []BitField{
				{Bits: "5:3", Name: "GYRO_DLPFCFG", Description: "Gyro low pass filter", Values: "0-7"},
				{Bits: "2:1", Name: "GYRO_FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250dps, 1=±500dps, 2=±1000dps, 3=±2000dps"},
				{Bits: "0", Name: "GYRO_FCHOICE", Description: "Enable gyro DLPF", Values: "0=Bypass, 1=Enabled"},
			}},
		{Bank: 2, Address: "0x02", Name: "GYRO_CONFIG_2", Description: "Gyroscope Configuration 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:3", Name: "XYZGYRO_CTEN", Description: "Gyro self-test enable", Values: "0=Disabled"},
				{Bits: "2:0", Name: "GYRO_AVGCFG", Description: "Gyro averaging filter", Values: "0=1x ... 7=128x"},
			}},
		{Bank: 2, Address: "0x10", Name: "ACCEL_SMPLRT_DIV_1", Description: "Accel Sample Rate Divider MSB", Access: "RW", Default: "0x00"},
		{Bank: 2, Address: "0x11", Name: "ACCEL_SMPLRT_DIV_2", Description: "Accel Sample Rate Divider LSB", Access: "RW", Default: "0x00"},
		{Bank: 2, Address: "0x14", Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW", Default: "0x01",
			BitFields: []BitField{
				{Bits: "5:3", Name: "ACCEL_DLPFCFG", Description: "Accel low pass filter", Values: "0-7"},
				{Bits: "2:1", Name: "ACCEL_FS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
				{Bits: "0", Name: "ACCEL_FCHOICE", Description: "Enable accel DLPF", Values: "0=Bypass, 1=Enabled"},
			}},
		{Bank: 2, Address: "0x15", Name: "ACCEL_CONFIG_2", Description: "Accelerometer Configuration 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4:2", Name: "AX_AY_AZ_ST_EN", Description: "Accel self-test enable", Values: "0=Disabled"},
				{Bits: "1:0", Name: "DEC3_CFG", Description: "Accel averaging", Values: "0=1-4x, 1=8x, 2=16x, 3=32x"},
			}},

		// Any bank
		{Bank: 0, Address: "0x7F", Name: "REG_BANK_SEL", Description: "Register bank select (managed by the driver)", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:4", Name: "USER_BANK", Description: "Active register bank", Values: "0-3"},
			}},
	}
}
