package asm

import "sort"

// Image is the byte-addressable output image. It is sparse: writes
// outside prior bounds simply extend coverage. Only pass 2 writes here.
type Image struct {
	bytes map[int]byte
}

func NewImage() *Image {
	return &Image{bytes: map[int]byte{}}
}

// Write stores a contiguous run of bytes starting at addr.
func (im *Image) Write(addr int, data []byte) {
	for i, b := range data {
		im.bytes[addr+i] = b
	}
}

// ReadByte returns the byte at addr and whether it was ever written.
func (im *Image) ReadByte(addr int) (byte, bool) {
	b, ok := im.bytes[addr]
	return b, ok
}

// Chunk is a contiguous written run of the image.
type Chunk struct {
	Addr int
	Data []byte
}

// Chunks returns the written regions as sorted contiguous runs.
func (im *Image) Chunks() []Chunk {
	addrs := make([]int, 0, len(im.bytes))
	for a := range im.bytes {
		addrs = append(addrs, a)
	}
	sort.Ints(addrs)

	var chunks []Chunk
	for _, a := range addrs {
		n := len(chunks)
		if n > 0 && chunks[n-1].Addr+len(chunks[n-1].Data) == a {
			chunks[n-1].Data = append(chunks[n-1].Data, im.bytes[a])
		} else {
			chunks = append(chunks, Chunk{Addr: a, Data: []byte{im.bytes[a]}})
		}
	}
	return chunks
}
