package extract

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

// buildPDF renders one page per entry; empty entries become blank pages.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		pdf.AddPage()
		if text != "" {
			pdf.Cell(0, 10, text)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

type xlsSheet struct {
	name string
	// rows holds ASCII cell text; a nil row is left out of the file.
	rows [][]string
}

const (
	cfbSector     = 512
	cfbEndOfChain = 0xFFFFFFFE
	cfbFreeSect   = 0xFFFFFFFF
	cfbFATSect    = 0xFFFFFFFD
	// Streams below the cutoff live in the mini stream; the workbook is
	// padded to it so one regular sector chain holds it.
	cfbCutoff = 4096
)

// buildXLS writes a minimal BIFF8 workbook of shared-string cells inside a
// compound file: header, one FAT sector, one directory sector, then the
// Workbook stream.
func buildXLS(t *testing.T, sheets ...xlsSheet) []byte {
	t.Helper()
	le := binary.LittleEndian

	record := func(buf *bytes.Buffer, id uint16, payload []byte) {
		var h [4]byte
		le.PutUint16(h[0:], id)
		le.PutUint16(h[2:], uint16(len(payload)))
		buf.Write(h[:])
		buf.Write(payload)
	}
	bof := func(kind uint16) []byte {
		p := make([]byte, 16)
		le.PutUint16(p[0:], 0x0600)
		le.PutUint16(p[2:], kind)
		return p
	}

	var sst []string
	index := map[string]uint32{}
	for _, s := range sheets {
		for _, row := range s.rows {
			for _, cell := range row {
				if _, ok := index[cell]; !ok {
					index[cell] = uint32(len(sst))
					sst = append(sst, cell)
				}
			}
		}
	}

	var globals bytes.Buffer
	record(&globals, 0x0809, bof(0x0005))
	positions := make([]int, len(sheets))
	for i, s := range sheets {
		positions[i] = globals.Len() + 4
		p := make([]byte, 8, 8+len(s.name))
		p[6] = byte(len(s.name))
		p = append(p, s.name...)
		record(&globals, 0x0085, p)
	}
	sstPayload := make([]byte, 8)
	le.PutUint32(sstPayload[0:], uint32(len(sst)))
	le.PutUint32(sstPayload[4:], uint32(len(sst)))
	for _, s := range sst {
		sstPayload = le.AppendUint16(sstPayload, uint16(len(s)))
		sstPayload = append(sstPayload, 0)
		sstPayload = append(sstPayload, s...)
	}
	record(&globals, 0x00FC, sstPayload)
	record(&globals, 0x000A, nil)

	stream := append([]byte(nil), globals.Bytes()...)
	for i, s := range sheets {
		le.PutUint32(stream[positions[i]:], uint32(len(stream)))

		var sheet bytes.Buffer
		record(&sheet, 0x0809, bof(0x0010))
		for r, row := range s.rows {
			if row == nil {
				continue
			}
			info := make([]byte, 16)
			le.PutUint16(info[0:], uint16(r))
			le.PutUint16(info[4:], uint16(len(row)))
			record(&sheet, 0x0208, info)
			for c, cell := range row {
				p := make([]byte, 10)
				le.PutUint16(p[0:], uint16(r))
				le.PutUint16(p[2:], uint16(c))
				le.PutUint32(p[6:], index[cell])
				record(&sheet, 0x00FD, p)
			}
		}
		record(&sheet, 0x000A, nil)
		stream = append(stream, sheet.Bytes()...)
	}
	require.LessOrEqual(t, len(stream), cfbCutoff)
	stream = append(stream, make([]byte, cfbCutoff-len(stream))...)
	streamSectors := len(stream) / cfbSector

	header := make([]byte, cfbSector)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 0x0003)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1) // FAT sectors
	le.PutUint32(header[48:], 1) // directory start
	le.PutUint32(header[56:], cfbCutoff)
	le.PutUint32(header[60:], cfbEndOfChain)
	le.PutUint32(header[68:], cfbEndOfChain)
	le.PutUint32(header[76:], 0) // FAT lives in sector 0
	for off := 80; off < cfbSector; off += 4 {
		le.PutUint32(header[off:], cfbFreeSect)
	}

	fat := make([]byte, cfbSector)
	for off := 0; off < cfbSector; off += 4 {
		le.PutUint32(fat[off:], cfbFreeSect)
	}
	le.PutUint32(fat[0:], cfbFATSect)
	le.PutUint32(fat[4:], cfbEndOfChain)
	for i := 0; i < streamSectors; i++ {
		next := uint32(i + 3)
		if i == streamSectors-1 {
			next = cfbEndOfChain
		}
		le.PutUint32(fat[(i+2)*4:], next)
	}

	dir := make([]byte, cfbSector)
	entry := func(slot int, name string, kind byte, child, start, size uint32) {
		e := dir[slot*128 : (slot+1)*128]
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			le.PutUint16(e[i*2:], u)
		}
		le.PutUint16(e[64:], uint16((len(units)+1)*2))
		e[66] = kind
		e[67] = 1
		le.PutUint32(e[68:], cfbFreeSect)
		le.PutUint32(e[72:], cfbFreeSect)
		le.PutUint32(e[76:], child)
		le.PutUint32(e[116:], start)
		le.PutUint32(e[120:], size)
	}
	entry(0, "Root Entry", 5, 1, cfbEndOfChain, 0)
	entry(1, "Workbook", 2, cfbFreeSect, 2, uint32(len(stream)))

	out := make([]byte, 0, len(header)+len(fat)+len(dir)+len(stream))
	out = append(out, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, stream...)
}
