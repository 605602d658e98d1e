package pe

import "fmt"

// Kind identifies a class of parse failure. Kinds are comparable with
// errors.Is through any number of wrapping layers.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// Error kinds.
const (
	ErrTooShortForHeaderPointer      Kind = "文件过短，无法读取PE头指针"
	ErrNotPE                         Kind = "不是PE文件"
	ErrNoOptionalHeader              Kind = "可选头为空"
	ErrOptionalHeaderTooShort        Kind = "可选头过短"
	ErrNotPE32Plus                   Kind = "不是PE32+文件"
	ErrUnexpectedOptionalHeaderSize  Kind = "可选头大小异常"
	ErrTruncatedSectionTable         Kind = "节区表被截断"
	ErrRVANotInAnySection            Kind = "RVA不在任何节区内"
	ErrImportDirectoryOverrun        Kind = "读取超出导入目录表大小"
	ErrUnterminatedImportLookupTable Kind = "导入查找表未终止"
	ErrUnexpectedEOF                 Kind = "文件意外结束"
	ErrUnterminatedString            Kind = "字符串未以NUL结尾"
	ErrInvalidUTF8                   Kind = "UTF-8解码失败"
	ErrExportDirectoryAbsent         Kind = "没有导出表"
)

// FormatError describes a malformed or truncated image. Only the fields
// relevant to Kind are set; Detail is a preformatted description.
type FormatError struct {
	Kind      Kind
	Offset    int
	Expected  int
	Available int
	Index     int
	RVA       uint32
	Detail    string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the error kind.
func (e *FormatError) Unwrap() error {
	return e.Kind
}

func eofError(what string, offset, width, size int) *FormatError {
	return &FormatError{
		Kind:      ErrUnexpectedEOF,
		Offset:    offset,
		Expected:  width,
		Available: max(size-offset, 0),
		Detail: fmt.Sprintf("在偏移 0x%08X 处读取%s (%d 字节) 时文件结束 (文件大小 0x%X)",
			offset, what, width, size),
	}
}
