// internal/protocol/constants.go
package protocol

import "time"

// Register map of the BMU.
// These values define the device protocol and MUST NOT be configurable.

// ---- INFO BLOCKS ----

// InfoAddress is the start of the identity/topology block.
const InfoAddress uint16 = 0x0000

// InfoCount is the number of registers in the identity block.
const InfoCount uint16 = 20

// ExtInfoAddress is the start of the inverter/model block.
const ExtInfoAddress uint16 = 0x0010

// ExtInfoCount is the number of registers in the inverter/model block.
const ExtInfoCount uint16 = 2

// ---- BMU STATUS ----

// BMUStatusAddress is the start of the BMU live status block.
const BMUStatusAddress uint16 = 0x0500

// BMUStatusCount covers words 0..20 (lifetime energies end at word 20).
const BMUStatusCount uint16 = 21

// ---- HANDSHAKE ----

// SelectCode is the second word of every select command.
const SelectCode uint16 = 0x8100

// BMSSelectAddress receives [tower, SelectCode] and doubles as the ready flag.
const BMSSelectAddress uint16 = 0x0550

// BMSReadyAddress is polled until BMSReadyCode appears.
const BMSReadyAddress uint16 = 0x0550

// BMSReadyCode signals the BMS status block is staged.
const BMSReadyCode uint16 = 0x8801

// BMSDataAddress is read once per page.
const BMSDataAddress uint16 = 0x0558

// BMSPageCount is the number of pages in a BMS status block.
const BMSPageCount = 4

// BMSPageSize is the number of registers per page.
const BMSPageSize uint16 = 65

// BMSStatusWords is the expected reassembled length.
const BMSStatusWords = 260

// LogSelectAddress receives [unit, SelectCode].
const LogSelectAddress uint16 = 0x05A0

// LogReadyAddress is polled until LogReadyCode appears.
const LogReadyAddress uint16 = 0x05A1

// LogReadyCode signals a log page set is staged.
const LogReadyCode uint16 = 0x4000

// LogDataAddress is read once per page.
const LogDataAddress uint16 = 0x05A8

// LogPageCount is the number of pages in a log block.
const LogPageCount = 5

// LogPageSize is the number of registers per page, header word included.
const LogPageSize uint16 = 65

// LogWords is the expected length after dropping each page header.
const LogWords = 320

// LogRecordWords is the size of one log sub-record.
const LogRecordWords = 15

// LogRecordsPerBlock is the number of sub-records in one log block.
// The trailing 20 words of the block are padding.
const LogRecordsPerBlock = 20

// ---- TIMING ----

// ReadyPollInterval is the delay between ready-flag polls.
const ReadyPollInterval = 200 * time.Millisecond

// ReadyTimeout bounds the wait for a ready flag.
const ReadyTimeout = 5 * time.Second

// PageGap is the pause before each page read.
const PageGap = 50 * time.Millisecond

// UnitGap is the pause between per-unit log reads.
const UnitGap = 200 * time.Millisecond

// ---- LIMITS ----

// MaxCellVoltage is the plausibility ceiling for a decoded cell voltage (V).
const MaxCellVoltage = 5.0

// LogYearBase is added to the two-digit year in log records.
const LogYearBase = 2000

// BMUUnit is the log unit id of the BMU itself; towers are 1..N.
const BMUUnit = 0

// InfoRetryInterval is the pause between identity block retries.
const InfoRetryInterval = 100 * time.Millisecond
