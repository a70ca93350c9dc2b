package apdu

import (
	"fmt"
	"strconv"
	"strings"
)

// Obis is a 6-byte OBIS object identifier (logical name), e.g. "1.0.1.8.0.255".
type Obis [6]byte

// ParseObis parses an OBIS code from its dotted string form.
func ParseObis(s string) (Obis, error) {
	var obis Obis
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return obis, fmt.Errorf("apdu: OBIS code %q must have 6 parts", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return obis, fmt.Errorf("apdu: OBIS code %q: %w", s, err)
		}
		obis[i] = byte(v)
	}
	return obis, nil
}

func (o Obis) String() string {
	parts := make([]string, 6)
	for i, b := range o {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ".")
}
