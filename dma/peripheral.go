// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import "fmt"

// Peripheral identifies the hardware endpoint a channel is wired to: which
// peripheral function, and whether the channel moves data into memory (_RX)
// or out of it (_TX). The value is written directly into the channel's
// peripheral-select register, so the type is an opaque byte rather than a
// Go-idiomatic closed set of named constants: every value in 0..255 must be
// representable, including ones the datasheet leaves unused, so a round
// trip through the 8-bit PSR field never produces an unrepresentable value.
type Peripheral uint8

const (
	USART0_RX Peripheral = iota
	USART1_RX
	USART2_RX
	USART3_RX
	SPI_RX
	TWIM0_RX
	TWIM1_RX
	TWIM2_RX
	TWIM3_RX
	TWIS0_RX
	TWIS1_RX
	ADCIFE_RX
	CATB_RX
	unused13
	IISC_CH0_RX
	IISC_CH1_RX
	PARC_RX
	AESA_RX
	USART0_TX
	USART1_TX
	USART2_TX
	USART3_TX
	SPI_TX
	TWIM0_TX
	TWIM1_TX
	TWIM2_TX
	TWIM3_TX
	TWIS0_TX
	TWIS1_TX
	ADCIFE_TX
	CATB_TX
	ABDACB_SDR0_TX
	ABDACB_SDR1_TX
	IISC_CH0_TX
	IISC_CH1_TX
	DACC_TX
	AESA_TX
	LCDCA_ACMDR_TX
	LCDCA_ABMDR_TX
)

var peripheralNames = map[Peripheral]string{
	USART0_RX:      "USART0_RX",
	USART1_RX:      "USART1_RX",
	USART2_RX:      "USART2_RX",
	USART3_RX:      "USART3_RX",
	SPI_RX:         "SPI_RX",
	TWIM0_RX:       "TWIM0_RX",
	TWIM1_RX:       "TWIM1_RX",
	TWIM2_RX:       "TWIM2_RX",
	TWIM3_RX:       "TWIM3_RX",
	TWIS0_RX:       "TWIS0_RX",
	TWIS1_RX:       "TWIS1_RX",
	ADCIFE_RX:      "ADCIFE_RX",
	CATB_RX:        "CATB_RX",
	IISC_CH0_RX:    "IISC_CH0_RX",
	IISC_CH1_RX:    "IISC_CH1_RX",
	PARC_RX:        "PARC_RX",
	AESA_RX:        "AESA_RX",
	USART0_TX:      "USART0_TX",
	USART1_TX:      "USART1_TX",
	USART2_TX:      "USART2_TX",
	USART3_TX:      "USART3_TX",
	SPI_TX:         "SPI_TX",
	TWIM0_TX:       "TWIM0_TX",
	TWIM1_TX:       "TWIM1_TX",
	TWIM2_TX:       "TWIM2_TX",
	TWIM3_TX:       "TWIM3_TX",
	TWIS0_TX:       "TWIS0_TX",
	TWIS1_TX:       "TWIS1_TX",
	ADCIFE_TX:      "ADCIFE_TX",
	CATB_TX:        "CATB_TX",
	ABDACB_SDR0_TX: "ABDACB_SDR0_TX",
	ABDACB_SDR1_TX: "ABDACB_SDR1_TX",
	IISC_CH0_TX:    "IISC_CH0_TX",
	IISC_CH1_TX:    "IISC_CH1_TX",
	DACC_TX:        "DACC_TX",
	AESA_TX:        "AESA_TX",
	LCDCA_ACMDR_TX: "LCDCA_ACMDR_TX",
	LCDCA_ABMDR_TX: "LCDCA_ABMDR_TX",
}

// String names the peripheral, synthesizing "UNUSEDn" for every byte value
// the datasheet leaves undefined so that every value in the type's domain
// prints something useful.
func (p Peripheral) String() string {
	if name, ok := peripheralNames[p]; ok {
		return name
	}
	return fmt.Sprintf("UNUSED%d", uint8(p))
}
