package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidBaud(t *testing.T) {
	for _, b := range []int{2400, 9600, 115200} {
		assert.True(t, ValidBaud(b), "baud %d", b)
	}
	for _, b := range []int{0, 1200, 57600} {
		assert.False(t, ValidBaud(b), "baud %d", b)
	}
}

func TestMatch(t *testing.T) {
	adapters := []Adapter{
		{Name: "/dev/ttyACM0", Product: "Arduino Uno"},
		{Name: "/dev/ttyUSB0", Product: "FT232R USB UART"},
		{Name: "/dev/ttyUSB1", Product: "FT232R USB UART"},
	}

	name, err := match(adapters, DefaultProduct)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", name)

	_, err = match(adapters, "CP2102")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenRejectsBaud(t *testing.T) {
	_, err := Open(Config{Port: "/dev/null", Baud: 1234}, nil)
	assert.Error(t, err)
}
