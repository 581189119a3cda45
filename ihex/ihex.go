// Package ihex serializes byte runs at absolute addresses as Intel-HEX
// records.
package ihex

import (
	"fmt"
	"io"
)

// Chunk is one contiguous run of bytes to serialize.
type Chunk struct {
	Addr int
	Data []byte
}

const recordSize = 16

// checksum computes the 8-bit two's complement checksum of a record.
func checksum(record []byte) byte {
	var sum byte
	for _, b := range record {
		sum += b
	}
	return -sum
}

func writeRecord(w io.Writer, kind byte, addr int, data []byte) error {
	record := []byte{byte(len(data)), byte(addr >> 8), byte(addr), kind}
	record = append(record, data...)
	if _, err := fmt.Fprintf(w, ":%02X", record[0]); err != nil {
		return err
	}
	for _, b := range record[1:] {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%02X\n", checksum(record))
	return err
}

// Write emits data records covering every chunk, switching the upper
// address word with extended linear address records as needed, and
// terminates with an end-of-file record.
func Write(w io.Writer, chunks []Chunk) error {
	upper := 0
	for _, c := range chunks {
		for off := 0; off < len(c.Data); {
			addr := c.Addr + off
			end := off + recordSize
			if end > len(c.Data) {
				end = len(c.Data)
			}
			// a record may not cross a 64K boundary
			if rem := 0x10000 - addr&0xffff; end-off > rem {
				end = off + rem
			}
			if addr>>16 != upper {
				upper = addr >> 16
				ela := []byte{byte(upper >> 8), byte(upper)}
				if err := writeRecord(w, 0x04, 0, ela); err != nil {
					return err
				}
			}
			if err := writeRecord(w, 0x00, addr&0xffff, c.Data[off:end]); err != nil {
				return err
			}
			off = end
		}
	}
	_, err := fmt.Fprint(w, ":00000001FF\n")
	return err
}
