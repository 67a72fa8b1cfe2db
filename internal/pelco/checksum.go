package pelco

// Checksum returns the byte-wise sum of data modulo 256. For a command frame
// the summed bytes are address, command 1, command 2, data 1 and data 2.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// VerifyChecksum checks that the last byte of data is the checksum of the
// bytes between the sync byte and the checksum.
func VerifyChecksum(data []byte) error {
	if len(data) < 2 {
		return &LengthError{Want: 2, Got: len(data)}
	}
	want := Checksum(data[1 : len(data)-1])
	got := data[len(data)-1]
	if want != got {
		return &ChecksumError{Expected: want, Actual: got}
	}
	return nil
}
