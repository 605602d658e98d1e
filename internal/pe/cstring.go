package pe

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// readCString reads a null-terminated string starting at offset. Names that
// are not valid UTF-8 are rejected rather than rendered lossily.
func readCString(data []byte, offset int) (string, error) {
	rest, ok := subslice(data, offset, len(data)-offset)
	if !ok {
		return "", eofError("字符串", offset, 1, len(data))
	}

	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", &FormatError{
			Kind:      ErrUnterminatedString,
			Offset:    offset,
			Available: len(rest),
			Detail: fmt.Sprintf("从偏移 0x%08X 开始读取NUL结尾字符串时文件结束 (已读取 %d 字节)",
				offset, len(rest)),
		}
	}

	s := rest[:n]
	if !utf8.Valid(s) {
		return "", &FormatError{
			Kind:   ErrInvalidUTF8,
			Offset: offset,
			Detail: fmt.Sprintf("偏移 0x%08X 处的字符串 %q", offset, s),
		}
	}
	return string(s), nil
}
