package cli

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadInput reads the whole image from path, or from stdin when path is
// empty or "-".
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "读取标准输入失败")
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "读取文件 %s 失败", path)
	}
	return data, nil
}
