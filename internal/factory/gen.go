package factory

import (
	"fmt"
	"strings"
)

const bytesPerLine = 16

// cByteArray renders a byte buffer as a C array definition.
func cByteArray(symbol string, data []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "u8 %s[] = {\n", symbol)
	for i, b := range data {
		if i%bytesPerLine == 0 {
			sb.WriteString("    ")
		}
		fmt.Fprintf(&sb, "0x%02X,", b)
		if i%bytesPerLine == bytesPerLine-1 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	if len(data)%bytesPerLine != 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString("};\n")
	return sb.String()
}

// cExtern renders the extern declaration of an array symbol.
func cExtern(ctype, symbol string, count int) string {
	return fmt.Sprintf("extern %s %s[%d];\n", ctype, symbol, count)
}
