package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBDAddr(t *testing.T) {
	addr, err := parseBDAddr("00:14:03:05:59:CE")
	require.NoError(t, err)
	// bdaddr_t is little-endian: the textual address reversed.
	require.Equal(t, [6]byte{0xCE, 0x59, 0x05, 0x03, 0x14, 0x00}, addr)

	_, err = parseBDAddr("not-an-address")
	require.Error(t, err)

	_, err = parseBDAddr("00:14:03:05:59")
	require.Error(t, err)

	_, err = parseBDAddr("00:14:03:05:59:ZZ")
	require.Error(t, err)
}
